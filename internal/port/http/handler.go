package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	refreshTokenCookie = "refreshToken"
	maxAvatarSize      = 8 << 20
)

// CookieConfig controls how session cookies are written. Secure should be
// true everywhere except local development.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Handler struct {
	sessions service.SessionService
	orders   service.OrderService
	cookies  CookieConfig
	log      logger.Logger
}

func NewHandler(sessions service.SessionService, orders service.OrderService, cookies CookieConfig, log logger.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		orders:   orders,
		cookies:  cookies,
		log:      log.With("component", "http"),
	}
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, tokens service.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(h.cookies.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.cookies.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookies.Secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register accepts JSON or multipart form data; the multipart form may carry
// an avatar image.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	input := service.RegisterInput{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
			respondError(w, h.log, service.ErrValidation("invalid multipart form"))
			return
		}
		input.FullName = r.FormValue("fullName")
		input.Email = r.FormValue("email")
		input.Password = r.FormValue("password")

		file, header, err := r.FormFile("avatar")
		if err == nil {
			defer file.Close()
			data, readErr := io.ReadAll(io.LimitReader(file, maxAvatarSize))
			if readErr != nil {
				respondError(w, h.log, service.ErrValidation("failed to read avatar file"))
				return
			}
			input.Avatar = &service.AvatarUpload{
				FileName:    header.Filename,
				Data:        data,
				ContentType: header.Header.Get("Content-Type"),
			}
		}
	} else {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, h.log, service.ErrValidation("invalid request body"))
			return
		}
		input.FullName = req.FullName
		input.Email = req.Email
		input.Password = req.Password
	}

	if err := h.sessions.Register(r.Context(), input); err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusCreated, "verification code sent to your email", nil)
}

type verifyOTPRequest struct {
	OTP string `json:"otp"`
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, service.ErrValidation("invalid request body"))
		return
	}

	session, err := h.sessions.VerifyOTP(r.Context(), req.OTP)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.setSessionCookies(w, session.Tokens)
	respond(w, http.StatusOK, "account verified", map[string]interface{}{
		"user":         toAccountResponse(session.Account),
		"accessToken":  session.Tokens.AccessToken,
		"refreshToken": session.Tokens.RefreshToken,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, service.ErrValidation("invalid request body"))
		return
	}

	session, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.setSessionCookies(w, session.Tokens)
	respond(w, http.StatusOK, "logged in", map[string]interface{}{
		"user":         toAccountResponse(session.Account),
		"accessToken":  session.Tokens.AccessToken,
		"refreshToken": session.Tokens.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the refresh token. The presented token comes from the
// cookie or, failing that, the request body.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var presented string
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, err := h.sessions.Refresh(r.Context(), presented)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.setSessionCookies(w, *pair)
	respond(w, http.StatusOK, "session refreshed", map[string]interface{}{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		unauthorized(w, "authentication required")
		return
	}

	if err := h.sessions.Logout(r.Context(), accountID); err != nil {
		respondError(w, h.log, err)
		return
	}

	h.clearSessionCookies(w)
	respond(w, http.StatusOK, "logged out", nil)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, service.ErrValidation("invalid request body"))
		return
	}

	if err := h.sessions.ForgotPassword(r.Context(), req.Email); err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "verification code sent to your email", nil)
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		unauthorized(w, "authentication required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, service.ErrValidation("invalid request body"))
		return
	}

	if err := h.sessions.ChangePassword(r.Context(), accountID, req.OldPassword, req.NewPassword); err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "password changed", nil)
}

func (h *Handler) CurrentAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		unauthorized(w, "authentication required")
		return
	}

	acct, err := h.sessions.CurrentAccount(r.Context(), accountID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "current account", toAccountResponse(acct))
}

type orderItemRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type orderRequest struct {
	Items []orderItemRequest `json:"items"`
}

func (h *Handler) parseOrderItems(r *http.Request) ([]entity.OrderItem, error) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, service.ErrValidation("invalid request body")
	}

	items := make([]entity.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		itemID, err := primitive.ObjectIDFromHex(it.ItemID)
		if err != nil {
			return nil, service.ErrValidation("item id is not a valid object id: " + it.ItemID)
		}
		item, err := entity.NewOrderItem(itemID, it.Quantity)
		if err != nil {
			return nil, service.ErrValidation(err.Error())
		}
		items = append(items, *item)
	}
	return items, nil
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		unauthorized(w, "authentication required")
		return
	}

	items, err := h.parseOrderItems(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), accountID, items)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusCreated, "order placed", order)
}

func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		unauthorized(w, "authentication required")
		return
	}

	items, err := h.parseOrderItems(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	result, err := h.orders.CreatePaymentIntent(r.Context(), accountID, items)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusCreated, "payment intent created", map[string]interface{}{
		"orderId":      result.OrderID.Hex(),
		"clientSecret": result.ClientSecret,
		"amount":       result.Amount,
	})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	claims, okClaims := claimsFromContext(r.Context())
	if !ok || !okClaims {
		unauthorized(w, "authentication required")
		return
	}

	orderID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, h.log, service.ErrValidation("order id is not a valid object id"))
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID, accountID, claims.Role)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "order", order)
}

func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		unauthorized(w, "authentication required")
		return
	}

	orders, err := h.sessions.OrderHistory(r.Context(), accountID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "order history", orders)
}

func (h *Handler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, h.log, service.ErrValidation("order id is not a valid object id"))
		return
	}

	order, err := h.orders.DeliverOrder(r.Context(), orderID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "order delivered", order)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "ok", nil)
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/service"
)

// envelope is the uniform response body. statusCode mirrors the HTTP status
// so clients reading only the body stay consistent with the wire.
type envelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, envelope{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

func respondError(w http.ResponseWriter, log logger.Logger, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case service.KindValidation, service.KindConflict, service.KindExpired:
			status = http.StatusBadRequest
			message = svcErr.Message
		case service.KindAuth:
			status = http.StatusUnauthorized
			message = svcErr.Message
		case service.KindNotFound:
			status = http.StatusNotFound
			message = svcErr.Message
		case service.KindPayment:
			// Gateway failures keep their message but never leak the
			// underlying gateway error to the client.
			message = svcErr.Message
		}
	}

	if status == http.StatusInternalServerError {
		log.Errorf("request failed: %v", err)
	}

	writeJSON(w, status, envelope{
		Success:    false,
		StatusCode: status,
		Message:    message,
	})
}

// accountResponse is the client-facing view of an account. Credential and
// session fields never appear here.
type accountResponse struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Contact      string    `json:"contact,omitempty"`
	Location     string    `json:"location,omitempty"`
	IsVerified   bool      `json:"isVerified"`
	OrderHistory []string  `json:"orderHistory"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toAccountResponse(acct *entity.Account) accountResponse {
	history := make([]string, 0, len(acct.OrderHistory))
	for _, id := range acct.OrderHistory {
		history = append(history, id.Hex())
	}
	return accountResponse{
		ID:           acct.ID.Hex(),
		FullName:     acct.FullName,
		Email:        acct.Email,
		Role:         acct.Role,
		AvatarURL:    acct.AvatarURL,
		Contact:      acct.Contact,
		Location:     acct.Location,
		IsVerified:   acct.IsVerified,
		OrderHistory: history,
		CreatedAt:    acct.CreatedAt,
	}
}

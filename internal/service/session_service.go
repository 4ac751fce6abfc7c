package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/email"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/storage/s3"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/metrics"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxOTPAttempts  = 20
	mailSendTimeout = 15 * time.Second
)

type AvatarUpload struct {
	FileName    string
	Data        []byte
	ContentType string
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Avatar   *AvatarUpload
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type AuthSession struct {
	Account *entity.Account
	Tokens  TokenPair
}

// SessionService owns the account session lifecycle: registration with OTP
// verification, credential login, refresh-token rotation, logout, and
// password recovery.
type SessionService interface {
	Register(ctx context.Context, input RegisterInput) error
	VerifyOTP(ctx context.Context, otp string) (*AuthSession, error)
	Login(ctx context.Context, emailAddr, password string) (*AuthSession, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accountID primitive.ObjectID) error
	ChangePassword(ctx context.Context, accountID primitive.ObjectID, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, emailAddr string) error
	CurrentAccount(ctx context.Context, accountID primitive.ObjectID) (*entity.Account, error)
	OrderHistory(ctx context.Context, accountID primitive.ObjectID) ([]entity.Order, error)
}

type sessionService struct {
	accounts repository.AccountRepository
	orders   repository.OrderRepository
	tokens   *TokenIssuer
	mail     email.Sender
	media    s3.MediaStore
	metrics  *metrics.Manager
	log      logger.Logger
	tracer   trace.Tracer
	otpTTL   time.Duration
}

func NewSessionService(
	accounts repository.AccountRepository,
	orders repository.OrderRepository,
	tokens *TokenIssuer,
	mail email.Sender,
	media s3.MediaStore,
	m *metrics.Manager,
	log logger.Logger,
	otpTTL time.Duration,
) SessionService {
	return &sessionService{
		accounts: accounts,
		orders:   orders,
		tokens:   tokens,
		mail:     mail,
		media:    media,
		metrics:  m,
		log:      log.With("service", "session"),
		tracer:   otel.Tracer("session-service"),
		otpTTL:   otpTTL,
	}
}

func normalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}

// uniqueOTP retries generation until no unverified, unexpired account holds
// the same code, keeping the code-to-account mapping 1:1.
func (s *sessionService) uniqueOTP(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxOTPAttempts; attempt++ {
		code, err := generateOTP()
		if err != nil {
			return "", err
		}
		inUse, err := s.accounts.OTPInUse(ctx, code, time.Now().UTC())
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a unique verification code")
}

func (s *sessionService) dispatchVerificationCode(toEmail, toName, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailSendTimeout)
		defer cancel()
		if err := s.mail.SendVerificationCode(ctx, toEmail, toName, code); err != nil {
			s.log.Warnf("failed to send verification code to %s: %v", toEmail, err)
		}
	}()
}

func (s *sessionService) Register(ctx context.Context, input RegisterInput) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.Register")
	defer span.End()

	fullName := strings.TrimSpace(input.FullName)
	emailAddr := normalizeEmail(input.Email)
	if fullName == "" || emailAddr == "" || strings.TrimSpace(input.Password) == "" {
		return ErrValidation("full name, email and password are required")
	}

	existing, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return ErrInternal(err)
	}
	if existing != nil && existing.IsVerified {
		return ErrConflict("account with this email already exists")
	}

	var avatarURL, avatarID string
	if input.Avatar != nil {
		res, err := s.media.Upload(ctx, input.Avatar.FileName, input.Avatar.Data, input.Avatar.ContentType)
		if err != nil {
			return wrapError(KindInternal, "failed to upload profile image", err)
		}
		avatarURL, avatarID = res.URL, res.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return ErrInternal(err)
	}

	code, err := s.uniqueOTP(ctx)
	if err != nil {
		return ErrInternal(err)
	}
	expiresAt := time.Now().UTC().Add(s.otpTTL)

	if existing != nil {
		// Unverified account re-registering: overwrite in place.
		err = s.accounts.ResetForRegistration(ctx, existing.ID, repository.RegistrationResetParams{
			PasswordHash: string(hash),
			OTP:          code,
			OTPExpiresAt: expiresAt,
			AvatarURL:    avatarURL,
			AvatarID:     avatarID,
		})
		if err != nil {
			return ErrInternal(err)
		}
	} else {
		acct := &entity.Account{
			FullName:     fullName,
			Email:        emailAddr,
			Password:     string(hash),
			Role:         entity.RoleCustomer,
			AvatarURL:    avatarURL,
			AvatarID:     avatarID,
			IsVerified:   false,
			OTP:          &code,
			OTPExpiresAt: &expiresAt,
		}
		if _, err := s.accounts.Create(ctx, acct); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrConflict("account with this email already exists")
			}
			return ErrInternal(err)
		}
	}

	// Best effort: a lost email never fails the registration.
	s.dispatchVerificationCode(emailAddr, fullName, code)
	s.metrics.RegistrationsTotal.Inc()
	s.log.Infof("registration pending verification for %s", emailAddr)
	return nil
}

func (s *sessionService) VerifyOTP(ctx context.Context, otp string) (*AuthSession, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.VerifyOTP")
	defer span.End()

	otp = strings.TrimSpace(otp)
	if otp == "" {
		return nil, ErrValidation("verification code is required")
	}

	// Only a live holder of the code verifies. Expired leftovers on abandoned
	// registrations are consulted second, purely to tell "expired" apart from
	// "never issued".
	acct, err := s.accounts.GetByLiveOTP(ctx, otp, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInternal(err)
		}
		_, staleErr := s.accounts.GetByOTP(ctx, otp)
		switch {
		case staleErr == nil:
			return nil, ErrExpired("verification code has expired")
		case errors.Is(staleErr, repository.ErrNotFound):
			return nil, ErrNotFound("account not found or code is invalid")
		default:
			return nil, ErrInternal(staleErr)
		}
	}

	if err := s.accounts.MarkVerified(ctx, acct.ID); err != nil {
		return nil, ErrInternal(err)
	}
	acct.IsVerified = true

	pair, err := s.issueAndStoreTokens(ctx, acct)
	if err != nil {
		return nil, err
	}

	s.log.Infof("account %s verified", acct.ID.Hex())
	return &AuthSession{Account: acct.Redacted(), Tokens: *pair}, nil
}

func (s *sessionService) Login(ctx context.Context, emailAddr, password string) (*AuthSession, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Login")
	defer span.End()

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return nil, ErrValidation("email and password are required")
	}

	acct, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound("account does not exist")
		}
		return nil, ErrInternal(err)
	}

	// Password login is only open to verified accounts; unverified ones must
	// finish the OTP flow first.
	if !acct.IsVerified {
		return nil, ErrAuth("account is not verified")
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.Password), []byte(password)) != nil {
		return nil, ErrAuth("password is incorrect")
	}

	pair, err := s.issueAndStoreTokens(ctx, acct)
	if err != nil {
		return nil, err
	}

	s.metrics.LoginsTotal.Inc()
	s.log.Infof("account %s logged in", acct.ID.Hex())
	return &AuthSession{Account: acct.Redacted(), Tokens: *pair}, nil
}

// issueAndStoreTokens mints a fresh pair and persists the refresh token,
// displacing whatever token was live before (single active session).
func (s *sessionService) issueAndStoreTokens(ctx context.Context, acct *entity.Account) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(acct)
	if err != nil {
		return nil, ErrInternal(err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(acct.ID)
	if err != nil {
		return nil, ErrInternal(err)
	}
	if err := s.accounts.SetRefreshToken(ctx, acct.ID, refreshToken); err != nil {
		return nil, ErrInternal(err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Refresh")
	defer span.End()

	if refreshToken == "" {
		return nil, ErrAuth("refresh token is required")
	}

	accountID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrAuth("refresh token is invalid")
	}

	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuth("refresh token is invalid")
		}
		return nil, ErrInternal(err)
	}

	accessToken, err := s.tokens.IssueAccessToken(acct)
	if err != nil {
		return nil, ErrInternal(err)
	}
	nextRefresh, err := s.tokens.IssueRefreshToken(acct.ID)
	if err != nil {
		return nil, ErrInternal(err)
	}

	// Conditional swap on the presented value: a token that has already been
	// rotated away (stolen, replayed, or raced) loses here.
	err = s.accounts.RotateRefreshToken(ctx, acct.ID, refreshToken, nextRefresh)
	if err != nil {
		if errors.Is(err, repository.ErrOptimisticLock) || errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuth("refresh token is expired or already used")
		}
		return nil, ErrInternal(err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: nextRefresh}, nil
}

func (s *sessionService) Logout(ctx context.Context, accountID primitive.ObjectID) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.Logout")
	defer span.End()

	err := s.accounts.ClearRefreshToken(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound("account not found")
		}
		return ErrInternal(err)
	}
	return nil
}

func (s *sessionService) ChangePassword(ctx context.Context, accountID primitive.ObjectID, oldPassword, newPassword string) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.ChangePassword")
	defer span.End()

	if strings.TrimSpace(newPassword) == "" {
		return ErrValidation("new password is required")
	}

	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound("account not found")
		}
		return ErrInternal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.Password), []byte(oldPassword)) != nil {
		return ErrAuth("old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrInternal(err)
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, string(hash)); err != nil {
		return ErrInternal(err)
	}
	return nil
}

// ForgotPassword re-enters the pending-verification state: a fresh code is
// issued and the verified flag is dropped until the code is confirmed.
func (s *sessionService) ForgotPassword(ctx context.Context, emailAddr string) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.ForgotPassword")
	defer span.End()

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrValidation("email is required")
	}

	acct, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound("account with this email does not exist")
		}
		return ErrInternal(err)
	}

	code, err := s.uniqueOTP(ctx)
	if err != nil {
		return ErrInternal(err)
	}
	expiresAt := time.Now().UTC().Add(s.otpTTL)

	if err := s.accounts.SetPasswordRecovery(ctx, acct.ID, code, expiresAt); err != nil {
		return ErrInternal(err)
	}

	s.dispatchVerificationCode(emailAddr, acct.FullName, code)
	return nil
}

func (s *sessionService) CurrentAccount(ctx context.Context, accountID primitive.ObjectID) (*entity.Account, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound("account not found")
		}
		return nil, ErrInternal(err)
	}
	return acct.Redacted(), nil
}

func (s *sessionService) OrderHistory(ctx context.Context, accountID primitive.ObjectID) ([]entity.Order, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.OrderHistory")
	defer span.End()

	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound("account not found")
		}
		return nil, ErrInternal(err)
	}

	orders, err := s.orders.ListByUser(ctx, accountID)
	if err != nil {
		return nil, ErrInternal(err)
	}
	return orders, nil
}

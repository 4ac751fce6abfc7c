package repository

import (
	"context"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegistrationResetParams overwrites an unverified account when the same
// email registers again before completing verification.
type RegistrationResetParams struct {
	PasswordHash string
	OTP          string
	OTPExpiresAt time.Time
	AvatarURL    string
	AvatarID     string
}

type AccountRepository interface {
	Create(ctx context.Context, acct *entity.Account) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Account, error)

	// GetByLiveOTP locates the account holding the code with an expiry after
	// now. Expired holders of the same value never match: abandoned
	// registrations keep their code on the document, and a stale holder must
	// not shadow the same value freshly issued to someone else.
	GetByLiveOTP(ctx context.Context, otp string, now time.Time) (*entity.Account, error)
	// GetByOTP locates an account by OTP value alone, live or expired.
	// Uniqueness among live codes is the caller's responsibility (see
	// OTPInUse).
	GetByOTP(ctx context.Context, otp string) (*entity.Account, error)
	// OTPInUse reports whether any unverified account currently holds the
	// given code with an expiry after now.
	OTPInUse(ctx context.Context, otp string, now time.Time) (bool, error)

	ResetForRegistration(ctx context.Context, id primitive.ObjectID, params RegistrationResetParams) error
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	// SetPasswordRecovery stores a fresh OTP pair and drops the verified
	// flag, re-entering the pending-verification state.
	SetPasswordRecovery(ctx context.Context, id primitive.ObjectID, otp string, expiresAt time.Time) error

	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	// RotateRefreshToken replaces the stored token only if it still equals
	// presented. Returns ErrOptimisticLock when the stored token has moved
	// on (stale or concurrently rotated), ErrNotFound for a missing account.
	RotateRefreshToken(ctx context.Context, id primitive.ObjectID, presented, next string) error
	ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error

	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	AppendOrderHistory(ctx context.Context, id, orderID primitive.ObjectID) error
}

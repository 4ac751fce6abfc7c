package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/metrics"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type sessionFixture struct {
	accounts *mockAccountRepo
	orders   *mockOrderRepo
	mailer   *stubMailer
	media    *stubMediaStore
	tokens   *TokenIssuer
	svc      SessionService
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		accounts: &mockAccountRepo{},
		orders:   &mockOrderRepo{},
		mailer:   newStubMailer(),
		media:    &stubMediaStore{},
		tokens:   testIssuer(),
	}
	f.svc = NewSessionService(
		f.accounts, f.orders, f.tokens, f.mailer, f.media,
		metrics.NewManager("test"), logger.NewNop(), 10*time.Minute,
	)
	return f
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, kind, svcErr.Kind)
}

func awaitCode(t *testing.T, mailer *stubMailer) string {
	t.Helper()
	select {
	case code := <-mailer.sent:
		return code
	case <-time.After(2 * time.Second):
		t.Fatal("no verification code was dispatched")
		return ""
	}
}

func TestRegisterNewAccount(t *testing.T) {
	f := newSessionFixture(t)

	f.accounts.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, repository.ErrNotFound)
	f.accounts.On("OTPInUse", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(false, nil)

	var created *entity.Account
	f.accounts.On("Create", mock.Anything, mock.AnythingOfType("*entity.Account")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*entity.Account) }).
		Return(primitive.NewObjectID(), nil)

	err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "New Diner",
		Email:    "New@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, entity.RoleCustomer, created.Role)
	assert.False(t, created.IsVerified)
	require.NotNil(t, created.OTP)
	require.NotNil(t, created.OTPExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().Add(10*time.Minute), *created.OTPExpiresAt, 5*time.Second)

	// Stored hash must not be the raw password.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("secret123")))

	code := awaitCode(t, f.mailer)
	assert.Equal(t, *created.OTP, code)
	n, convErr := strconv.Atoi(code)
	require.NoError(t, convErr)
	assert.GreaterOrEqual(t, n, 1000)
	assert.LessOrEqual(t, n, 9999)
}

func TestRegisterVerifiedEmailConflicts(t *testing.T) {
	f := newSessionFixture(t)

	f.accounts.On("GetByEmail", mock.Anything, "taken@example.com").
		Return(&entity.Account{ID: primitive.NewObjectID(), Email: "taken@example.com", IsVerified: true}, nil)

	err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Someone",
		Email:    "taken@example.com",
		Password: "secret123",
	})
	assertKind(t, err, KindConflict)
	f.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterOverwritesUnverifiedAccount(t *testing.T) {
	f := newSessionFixture(t)
	existingID := primitive.NewObjectID()

	f.accounts.On("GetByEmail", mock.Anything, "pending@example.com").
		Return(&entity.Account{ID: existingID, Email: "pending@example.com", IsVerified: false}, nil)
	f.accounts.On("OTPInUse", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(false, nil)
	f.accounts.On("ResetForRegistration", mock.Anything, existingID, mock.AnythingOfType("repository.RegistrationResetParams")).
		Return(nil)

	err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Pending Diner",
		Email:    "pending@example.com",
		Password: "newsecret",
	})
	require.NoError(t, err)
	f.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.accounts.AssertExpectations(t)
}

func TestRegisterRetriesCollidingCode(t *testing.T) {
	f := newSessionFixture(t)

	f.accounts.On("GetByEmail", mock.Anything, "retry@example.com").Return(nil, repository.ErrNotFound)
	f.accounts.On("OTPInUse", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(true, nil).Once()
	f.accounts.On("OTPInUse", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(false, nil).Once()
	f.accounts.On("Create", mock.Anything, mock.AnythingOfType("*entity.Account")).
		Return(primitive.NewObjectID(), nil)

	err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Retry Diner",
		Email:    "retry@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	f.accounts.AssertExpectations(t)
}

func TestRegisterValidatesInput(t *testing.T) {
	f := newSessionFixture(t)

	err := f.svc.Register(context.Background(), RegisterInput{Email: "x@example.com"})
	assertKind(t, err, KindValidation)
}

func TestRegisterUploadsAvatar(t *testing.T) {
	f := newSessionFixture(t)

	f.accounts.On("GetByEmail", mock.Anything, "pic@example.com").Return(nil, repository.ErrNotFound)
	f.accounts.On("OTPInUse", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(false, nil)

	var created *entity.Account
	f.accounts.On("Create", mock.Anything, mock.AnythingOfType("*entity.Account")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*entity.Account) }).
		Return(primitive.NewObjectID(), nil)

	err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Picture Diner",
		Email:    "pic@example.com",
		Password: "secret123",
		Avatar:   &AvatarUpload{FileName: "me.png", Data: []byte{1, 2, 3}, ContentType: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.media.uploads)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.AvatarURL)
	assert.NotEmpty(t, created.AvatarID)
}

func verificationAccount(expiresIn time.Duration) *entity.Account {
	otp := "4321"
	exp := time.Now().Add(expiresIn)
	return &entity.Account{
		ID:           primitive.NewObjectID(),
		FullName:     "Verify Diner",
		Email:        "verify@example.com",
		Password:     "hash",
		Role:         entity.RoleCustomer,
		OTP:          &otp,
		OTPExpiresAt: &exp,
	}
}

func TestVerifyOTPInsideWindow(t *testing.T) {
	f := newSessionFixture(t)
	acct := verificationAccount(time.Second)

	f.accounts.On("GetByLiveOTP", mock.Anything, "4321", mock.AnythingOfType("time.Time")).Return(acct, nil)
	f.accounts.On("MarkVerified", mock.Anything, acct.ID).Return(nil)
	f.accounts.On("SetRefreshToken", mock.Anything, acct.ID, mock.AnythingOfType("string")).Return(nil)

	session, err := f.svc.VerifyOTP(context.Background(), "4321")
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.True(t, session.Account.IsVerified)
	assert.Empty(t, session.Account.Password)
	assert.Nil(t, session.Account.OTP)
	assert.NotEmpty(t, session.Tokens.AccessToken)
	assert.NotEmpty(t, session.Tokens.RefreshToken)

	claims, err := f.tokens.VerifyAccessToken(session.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, acct.ID.Hex(), claims.Subject)
	f.accounts.AssertExpectations(t)
}

func TestVerifyOTPAfterWindowExpired(t *testing.T) {
	f := newSessionFixture(t)
	acct := verificationAccount(-time.Second)

	f.accounts.On("GetByLiveOTP", mock.Anything, "4321", mock.AnythingOfType("time.Time")).
		Return(nil, repository.ErrNotFound)
	f.accounts.On("GetByOTP", mock.Anything, "4321").Return(acct, nil)

	_, err := f.svc.VerifyOTP(context.Background(), "4321")
	assertKind(t, err, KindExpired)
	f.accounts.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
}

func TestVerifyOTPUnknownCode(t *testing.T) {
	f := newSessionFixture(t)

	f.accounts.On("GetByLiveOTP", mock.Anything, "0000", mock.AnythingOfType("time.Time")).
		Return(nil, repository.ErrNotFound)
	f.accounts.On("GetByOTP", mock.Anything, "0000").Return(nil, repository.ErrNotFound)

	_, err := f.svc.VerifyOTP(context.Background(), "0000")
	assertKind(t, err, KindNotFound)
}

// A code abandoned on an old registration can expire in place and later be
// issued to someone else. The stale holder must not win the lookup.
func TestVerifyOTPPrefersLiveHolderOfReissuedCode(t *testing.T) {
	f := newSessionFixture(t)
	live := verificationAccount(time.Minute)
	live.Email = "fresh@example.com"

	f.accounts.On("GetByLiveOTP", mock.Anything, "4321", mock.AnythingOfType("time.Time")).
		Return(live, nil)
	f.accounts.On("MarkVerified", mock.Anything, live.ID).Return(nil)
	f.accounts.On("SetRefreshToken", mock.Anything, live.ID, mock.AnythingOfType("string")).Return(nil)

	session, err := f.svc.VerifyOTP(context.Background(), "4321")
	require.NoError(t, err)
	assert.Equal(t, "fresh@example.com", session.Account.Email)
	assert.True(t, session.Account.IsVerified)

	// The unscoped lookup is only a fallback; the stale holder is never read
	// once a live match exists.
	f.accounts.AssertNotCalled(t, "GetByOTP", mock.Anything, mock.Anything)
}

func TestVerifyOTPRequiresCode(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.svc.VerifyOTP(context.Background(), "  ")
	assertKind(t, err, KindValidation)
}

func TestLoginSuccess(t *testing.T) {
	f := newSessionFixture(t)
	acct := &entity.Account{
		ID:         primitive.NewObjectID(),
		FullName:   "Login Diner",
		Email:      "login@example.com",
		Password:   mustHash(t, "correct-horse"),
		Role:       entity.RoleCustomer,
		IsVerified: true,
	}

	f.accounts.On("GetByEmail", mock.Anything, "login@example.com").Return(acct, nil)

	var stored string
	f.accounts.On("SetRefreshToken", mock.Anything, acct.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { stored = args.Get(2).(string) }).
		Return(nil)

	session, err := f.svc.Login(context.Background(), "Login@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, session.Tokens.RefreshToken, stored)
	assert.Empty(t, session.Account.Password)
	assert.Empty(t, session.Account.RefreshToken)
}

func TestLoginRejectsUnverifiedAccount(t *testing.T) {
	f := newSessionFixture(t)
	acct := &entity.Account{
		ID:         primitive.NewObjectID(),
		Email:      "pending@example.com",
		Password:   mustHash(t, "whatever"),
		IsVerified: false,
	}

	f.accounts.On("GetByEmail", mock.Anything, "pending@example.com").Return(acct, nil)

	_, err := f.svc.Login(context.Background(), "pending@example.com", "whatever")
	assertKind(t, err, KindAuth)
	f.accounts.AssertNotCalled(t, "SetRefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newSessionFixture(t)
	acct := &entity.Account{
		ID:         primitive.NewObjectID(),
		Email:      "login@example.com",
		Password:   mustHash(t, "right"),
		IsVerified: true,
	}

	f.accounts.On("GetByEmail", mock.Anything, "login@example.com").Return(acct, nil)

	_, err := f.svc.Login(context.Background(), "login@example.com", "wrong")
	assertKind(t, err, KindAuth)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newSessionFixture(t)

	f.accounts.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrNotFound)

	_, err := f.svc.Login(context.Background(), "ghost@example.com", "anything")
	assertKind(t, err, KindNotFound)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newSessionFixture(t)
	acct := &entity.Account{
		ID:         primitive.NewObjectID(),
		Email:      "refresh@example.com",
		Role:       entity.RoleCustomer,
		IsVerified: true,
	}
	presented, err := f.tokens.IssueRefreshToken(acct.ID)
	require.NoError(t, err)

	f.accounts.On("GetByID", mock.Anything, acct.ID).Return(acct, nil)
	f.accounts.On("RotateRefreshToken", mock.Anything, acct.ID, presented, mock.AnythingOfType("string")).
		Return(nil)

	pair, err := f.svc.Refresh(context.Background(), presented)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	f.accounts.AssertExpectations(t)
}

func TestRefreshWithSupersededToken(t *testing.T) {
	f := newSessionFixture(t)
	acct := &entity.Account{ID: primitive.NewObjectID(), IsVerified: true}
	presented, err := f.tokens.IssueRefreshToken(acct.ID)
	require.NoError(t, err)

	f.accounts.On("GetByID", mock.Anything, acct.ID).Return(acct, nil)
	f.accounts.On("RotateRefreshToken", mock.Anything, acct.ID, presented, mock.AnythingOfType("string")).
		Return(repository.ErrOptimisticLock)

	_, err = f.svc.Refresh(context.Background(), presented)
	assertKind(t, err, KindAuth)
	assert.Contains(t, err.Error(), "expired or already used")
}

func TestRefreshWithGarbageToken(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.svc.Refresh(context.Background(), "not-a-jwt")
	assertKind(t, err, KindAuth)
	f.accounts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestLogoutClearsRefreshToken(t *testing.T) {
	f := newSessionFixture(t)
	accountID := primitive.NewObjectID()

	f.accounts.On("ClearRefreshToken", mock.Anything, accountID).Return(nil)

	require.NoError(t, f.svc.Logout(context.Background(), accountID))
	f.accounts.AssertExpectations(t)
}

func TestChangePasswordSuccess(t *testing.T) {
	f := newSessionFixture(t)
	acct := &entity.Account{
		ID:       primitive.NewObjectID(),
		Password: mustHash(t, "old-secret"),
	}

	f.accounts.On("GetByID", mock.Anything, acct.ID).Return(acct, nil)

	var newHash string
	f.accounts.On("UpdatePassword", mock.Anything, acct.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { newHash = args.Get(2).(string) }).
		Return(nil)

	err := f.svc.ChangePassword(context.Background(), acct.ID, "old-secret", "new-secret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("new-secret")))
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	f := newSessionFixture(t)
	acct := &entity.Account{
		ID:       primitive.NewObjectID(),
		Password: mustHash(t, "old-secret"),
	}

	f.accounts.On("GetByID", mock.Anything, acct.ID).Return(acct, nil)

	err := f.svc.ChangePassword(context.Background(), acct.ID, "not-it", "new-secret")
	assertKind(t, err, KindAuth)
	f.accounts.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestForgotPasswordIssuesNewCode(t *testing.T) {
	f := newSessionFixture(t)
	acct := &entity.Account{
		ID:       primitive.NewObjectID(),
		FullName: "Forgetful Diner",
		Email:    "forgot@example.com",
	}

	f.accounts.On("GetByEmail", mock.Anything, "forgot@example.com").Return(acct, nil)
	f.accounts.On("OTPInUse", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(false, nil)

	var storedCode string
	f.accounts.On("SetPasswordRecovery", mock.Anything, acct.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { storedCode = args.Get(2).(string) }).
		Return(nil)

	err := f.svc.ForgotPassword(context.Background(), "forgot@example.com")
	require.NoError(t, err)
	assert.Equal(t, storedCode, awaitCode(t, f.mailer))
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newSessionFixture(t)

	f.accounts.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrNotFound)

	err := f.svc.ForgotPassword(context.Background(), "ghost@example.com")
	assertKind(t, err, KindNotFound)
}

func TestOrderHistoryReturnsUserOrders(t *testing.T) {
	f := newSessionFixture(t)
	acct := &entity.Account{ID: primitive.NewObjectID(), IsVerified: true}
	orders := []entity.Order{
		{ID: primitive.NewObjectID(), UserID: acct.ID, TotalPrice: 600},
	}

	f.accounts.On("GetByID", mock.Anything, acct.ID).Return(acct, nil)
	f.orders.On("ListByUser", mock.Anything, acct.ID).Return(orders, nil)

	got, err := f.svc.OrderHistory(context.Background(), acct.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(600), got[0].TotalPrice)
}

func TestCurrentAccountIsRedacted(t *testing.T) {
	f := newSessionFixture(t)
	otp := "1234"
	acct := &entity.Account{
		ID:           primitive.NewObjectID(),
		Email:        "me@example.com",
		Password:     "hash",
		RefreshToken: "token",
		OTP:          &otp,
	}

	f.accounts.On("GetByID", mock.Anything, acct.ID).Return(acct, nil)

	got, err := f.svc.CurrentAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Password)
	assert.Empty(t, got.RefreshToken)
	assert.Nil(t, got.OTP)
}

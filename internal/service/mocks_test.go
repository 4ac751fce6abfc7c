package service

import (
	"context"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/payment"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/storage/s3"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/repository"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) Create(ctx context.Context, acct *entity.Account) (primitive.ObjectID, error) {
	args := m.Called(ctx, acct)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

func (m *mockAccountRepo) GetByLiveOTP(ctx context.Context, otp string, now time.Time) (*entity.Account, error) {
	args := m.Called(ctx, otp, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

func (m *mockAccountRepo) GetByOTP(ctx context.Context, otp string) (*entity.Account, error) {
	args := m.Called(ctx, otp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

func (m *mockAccountRepo) OTPInUse(ctx context.Context, otp string, now time.Time) (bool, error) {
	args := m.Called(ctx, otp, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccountRepo) ResetForRegistration(ctx context.Context, id primitive.ObjectID, params repository.RegistrationResetParams) error {
	args := m.Called(ctx, id, params)
	return args.Error(0)
}

func (m *mockAccountRepo) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAccountRepo) SetPasswordRecovery(ctx context.Context, id primitive.ObjectID, otp string, expiresAt time.Time) error {
	args := m.Called(ctx, id, otp, expiresAt)
	return args.Error(0)
}

func (m *mockAccountRepo) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *mockAccountRepo) RotateRefreshToken(ctx context.Context, id primitive.ObjectID, presented, next string) error {
	args := m.Called(ctx, id, presented, next)
	return args.Error(0)
}

func (m *mockAccountRepo) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAccountRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockAccountRepo) AppendOrderHistory(ctx context.Context, id, orderID primitive.ObjectID) error {
	args := m.Called(ctx, id, orderID)
	return args.Error(0)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, params repository.CreateOrderParams) (*entity.Order, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, orderID primitive.ObjectID) (*entity.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *mockOrderRepo) MarkDelivered(ctx context.Context, orderID primitive.ObjectID) (*entity.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]entity.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) PriceByID(ctx context.Context, itemID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(int64), args.Error(1)
}

type mockPriceCache struct {
	mock.Mock
}

func (m *mockPriceCache) Get(ctx context.Context, itemID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPriceCache) Set(ctx context.Context, itemID primitive.ObjectID, price int64, ttl time.Duration) error {
	args := m.Called(ctx, itemID, price, ttl)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	args := m.Called(ctx, amount, currency, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, message interface{}) error {
	args := m.Called(ctx, subject, message)
	return args.Error(0)
}

// stubMailer captures codes without the asynchrony of a mock expectation:
// the service sends mail from a goroutine.
type stubMailer struct {
	sent chan string
}

func newStubMailer() *stubMailer {
	return &stubMailer{sent: make(chan string, 4)}
}

func (s *stubMailer) SendVerificationCode(_ context.Context, _, _, code string) error {
	select {
	case s.sent <- code:
	default:
	}
	return nil
}

type stubMediaStore struct {
	uploads int
}

func (s *stubMediaStore) Upload(_ context.Context, fileName string, _ []byte, _ string) (*s3.UploadResult, error) {
	s.uploads++
	return &s3.UploadResult{URL: "http://media.local/avatars/" + fileName, ID: "avatars/" + fileName}, nil
}

func (s *stubMediaStore) Delete(context.Context, string) error { return nil }

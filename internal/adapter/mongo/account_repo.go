package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const accountCollectionName = "accounts"

type mongoAccount struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	FullName     string               `bson:"full_name"`
	Email        string               `bson:"email"`
	Password     string               `bson:"password"`
	Role         string               `bson:"role"`
	AvatarURL    string               `bson:"avatar_url,omitempty"`
	AvatarID     string               `bson:"avatar_id,omitempty"`
	Contact      string               `bson:"contact,omitempty"`
	Location     string               `bson:"location,omitempty"`
	IsVerified   bool                 `bson:"is_verified"`
	OTP          *string              `bson:"otp,omitempty"`
	OTPExpiresAt *time.Time           `bson:"otp_expires_at,omitempty"`
	RefreshToken string               `bson:"refresh_token,omitempty"`
	OrderHistory []primitive.ObjectID `bson:"order_history,omitempty"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`
}

func (m *mongoAccount) toEntity() *entity.Account {
	return &entity.Account{
		ID:           m.ID,
		FullName:     m.FullName,
		Email:        m.Email,
		Password:     m.Password,
		Role:         m.Role,
		AvatarURL:    m.AvatarURL,
		AvatarID:     m.AvatarID,
		Contact:      m.Contact,
		Location:     m.Location,
		IsVerified:   m.IsVerified,
		OTP:          m.OTP,
		OTPExpiresAt: m.OTPExpiresAt,
		RefreshToken: m.RefreshToken,
		OrderHistory: m.OrderHistory,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromEntity(e *entity.Account) *mongoAccount {
	return &mongoAccount{
		ID:           e.ID,
		FullName:     e.FullName,
		Email:        e.Email,
		Password:     e.Password,
		Role:         e.Role,
		AvatarURL:    e.AvatarURL,
		AvatarID:     e.AvatarID,
		Contact:      e.Contact,
		Location:     e.Location,
		IsVerified:   e.IsVerified,
		OTP:          e.OTP,
		OTPExpiresAt: e.OTPExpiresAt,
		RefreshToken: e.RefreshToken,
		OrderHistory: e.OrderHistory,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

type accountRepository struct {
	collection *mongo.Collection
	log        logger.Logger
}

func NewAccountRepository(db *mongo.Database, log logger.Logger) repository.AccountRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := db.Collection(accountCollectionName)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "otp", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to ensure indexes for accounts collection (may already exist): %v", err)
	}

	return &accountRepository{
		collection: collection,
		log:        log.With("repo", "accounts"),
	}
}

func (r *accountRepository) Create(ctx context.Context, acct *entity.Account) (primitive.ObjectID, error) {
	dbAcct := fromEntity(acct)
	if dbAcct.ID.IsZero() {
		dbAcct.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	dbAcct.CreatedAt = now
	dbAcct.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, dbAcct)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.log.Warnf("duplicate email during account creation: %s", acct.Email)
			return primitive.NilObjectID, repository.ErrAlreadyExists
		}
		r.log.Errorf("database error during account creation for %s: %v", acct.Email, err)
		return primitive.NilObjectID, err
	}
	return dbAcct.ID, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *accountRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *accountRepository) GetByLiveOTP(ctx context.Context, otp string, now time.Time) (*entity.Account, error) {
	return r.findOne(ctx, bson.M{
		"otp":            otp,
		"otp_expires_at": bson.M{"$gt": now},
	})
}

func (r *accountRepository) GetByOTP(ctx context.Context, otp string) (*entity.Account, error) {
	return r.findOne(ctx, bson.M{"otp": otp})
}

func (r *accountRepository) findOne(ctx context.Context, filter bson.M) (*entity.Account, error) {
	var dbAcct mongoAccount
	err := r.collection.FindOne(ctx, filter).Decode(&dbAcct)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return dbAcct.toEntity(), nil
}

func (r *accountRepository) OTPInUse(ctx context.Context, otp string, now time.Time) (bool, error) {
	filter := bson.M{
		"otp":            otp,
		"is_verified":    false,
		"otp_expires_at": bson.M{"$gt": now},
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *accountRepository) ResetForRegistration(ctx context.Context, id primitive.ObjectID, params repository.RegistrationResetParams) error {
	set := bson.M{
		"password":       params.PasswordHash,
		"otp":            params.OTP,
		"otp_expires_at": params.OTPExpiresAt,
		"is_verified":    false,
		"updated_at":     time.Now().UTC(),
	}
	if params.AvatarURL != "" {
		set["avatar_url"] = params.AvatarURL
		set["avatar_id"] = params.AvatarID
	}
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (r *accountRepository) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			"is_verified": true,
			"updated_at":  time.Now().UTC(),
		},
		"$unset": bson.M{
			"otp":            "",
			"otp_expires_at": "",
		},
	}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

func (r *accountRepository) SetPasswordRecovery(ctx context.Context, id primitive.ObjectID, otp string, expiresAt time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"otp":            otp,
			"otp_expires_at": expiresAt,
			"is_verified":    false,
			"updated_at":     time.Now().UTC(),
		},
	}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

func (r *accountRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	update := bson.M{
		"$set": bson.M{
			"refresh_token": token,
			"updated_at":    time.Now().UTC(),
		},
	}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

// RotateRefreshToken is a compare-and-swap: the stored token is replaced only
// while it still equals the presented one, so two refreshes racing on the
// same token cannot both win.
func (r *accountRepository) RotateRefreshToken(ctx context.Context, id primitive.ObjectID, presented, next string) error {
	filter := bson.M{
		"_id":           id,
		"refresh_token": presented,
	}
	update := bson.M{
		"$set": bson.M{
			"refresh_token": next,
			"updated_at":    time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		err := r.collection.FindOne(ctx, bson.M{"_id": id}).Err()
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		return repository.ErrOptimisticLock
	}
	return nil
}

func (r *accountRepository) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			"refresh_token": "",
			"updated_at":    time.Now().UTC(),
		},
	}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	update := bson.M{
		"$set": bson.M{
			"password":   passwordHash,
			"updated_at": time.Now().UTC(),
		},
	}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

func (r *accountRepository) AppendOrderHistory(ctx context.Context, id, orderID primitive.ObjectID) error {
	update := bson.M{
		"$push": bson.M{"order_history": orderID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

func (r *accountRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/equiptrack/defect-registry/internal/models"
)

// UserStore persists user credentials in the "users" collection.
type UserStore struct {
	collection *mongo.Collection
}

// NewUserStore constructs a UserStore on the given database handle.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{collection: db.Collection("users")}
}

// EnsureIndexes creates the unique index on email that backs duplicate
// detection. Safe to call on every startup.
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// FindByEmail returns the user with the given email, or ErrUserNotFound.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user. Returns ErrDuplicateEmail when the email is
// already taken.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := s.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// SetLastLogin stamps the user's lastLogin.
func (s *UserStore) SetLastLogin(ctx context.Context, email string, t time.Time) error {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"lastLogin": t}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetLastLogout stamps the user's lastLogout and returns the updated document.
// ErrUserNotFound signals the user vanished between login and logout.
func (s *UserStore) SetLastLogout(ctx context.Context, email string, t time.Time) (*models.User, error) {
	var user models.User
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"lastLogout": t}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

package mongorepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mzhou3299/2-web-app-spogs/core/user"
	"github.com/mzhou3299/2-web-app-spogs/storage/database"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash []byte             `bson:"password_hash"`
	IsActive     bool               `bson:"is_active"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func newUserDoc(usr user.User) userDoc {
	return userDoc{
		Username:     usr.Username,
		Email:        usr.Email,
		PasswordHash: usr.PasswordHash,
		IsActive:     usr.IsActive,
		CreatedAt:    usr.CreatedAt,
	}
}

func (d userDoc) user() user.User {
	return user.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *database.DB) user.Repository {
	return &userRepository{coll: db.Collection(database.UsersCollection)}
}

func (repo *userRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := repo.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "counting users")
	}
	return n > 0, nil
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string) error {
	taken, err := repo.exists(ctx, bson.M{"username": username})
	if err != nil {
		return err
	}
	if taken {
		return user.ErrUsernameExists
	}
	if taken, err = repo.exists(ctx, bson.M{"email": email}); err != nil {
		return err
	}
	if taken {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.coll.InsertOne(ctx, newUserDoc(usr))
	if err != nil {
		return user.User{}, duplicateUserError(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		usr.ID = oid.Hex()
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	query, err := UserFilter(filter)
	if err != nil {
		return user.User{}, err
	}
	var doc userDoc
	if err = repo.coll.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return doc.user(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(usr.ID)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}
	set := bson.M{
		"username":  usr.Username,
		"email":     usr.Email,
		"is_active": usr.IsActive,
	}
	if usr.PasswordHash != nil {
		set["password_hash"] = usr.PasswordHash
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return user.User{}, duplicateUserError(err)
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

// UserFilter builds the query document selecting a single user.
func UserFilter(filter user.GetFilter) (bson.M, error) {
	switch {
	case filter.ID != "":
		oid, err := primitive.ObjectIDFromHex(filter.ID)
		if err != nil {
			return nil, user.ErrNotFound
		}
		return bson.M{"_id": oid}, nil
	case filter.Username != "":
		return bson.M{"username": filter.Username}, nil
	case filter.Email != "":
		return bson.M{"email": filter.Email}, nil
	case filter.UsernameOrEmail != "":
		return bson.M{"$or": bson.A{
			bson.M{"username": filter.UsernameOrEmail},
			bson.M{"email": filter.UsernameOrEmail},
		}}, nil
	}
	return nil, user.ErrNotFound
}

// duplicateUserError maps a unique index violation to the field it concerns.
func duplicateUserError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return errors.Wrap(err, "writing user")
	}
	if strings.Contains(err.Error(), "index: "+emailIndex+" ") {
		return user.ErrEmailExists
	}
	return user.ErrUsernameExists
}

// emailIndex is the default name of the unique index on users.email.
const emailIndex = "email_1"

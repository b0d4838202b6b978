//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"flash-chat/errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type IUserRepository interface {
	CreateUser(email, hashedPassword string) (string, error)
	GetUserByEmail(email string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the domain-friendly representation of a user in the repository layer.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// CreateUser persists the user in BadgerDB under "user:{email}".
// It returns the newly generated User ID
func (u UserRepository) CreateUser(email, hashedPassword string) (string, error) {
	newID := uuid.New().String()
	doc, err := structpb.NewStruct(map[string]any{
		"id":           newID,
		"email":        email,
		"passwordHash": hashedPassword,
		"createdAt":    float64(time.Now().Unix()),
		"roles":        []any{"user"},
	})
	if err != nil {
		return "", fmt.Errorf("encode failed: %w", err)
	}

	data, err := proto.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte("user:" + email)
		if _, err = txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})

	return newID, err
}

// GetUserByEmail retrieves a user from Badger and converts it to the repository.User struct.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var doc structpb.Struct

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:" + email))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &doc)
		})
	})

	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}

	return toUser(&doc), nil
}

func toUser(doc *structpb.Struct) User {
	fields := doc.GetFields()
	return User{
		ID:           fields["id"].GetStringValue(),
		Email:        fields["email"].GetStringValue(),
		PasswordHash: fields["passwordHash"].GetStringValue(),
		Roles: lo.Map(fields["roles"].GetListValue().GetValues(), func(v *structpb.Value, _ int) string {
			return v.GetStringValue()
		}),
		CreatedAt: time.Unix(int64(fields["createdAt"].GetNumberValue()), 0).UTC(),
	}
}

package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pocketfolio/finance-backend/internal/crypto"
	"github.com/pocketfolio/finance-backend/internal/errs"
	"github.com/pocketfolio/finance-backend/internal/models"
)

type userStore struct {
	client *firestore.Client
	cipher crypto.Cipher
}

func NewUserStore(client *firestore.Client, cipher crypto.Cipher) *userStore {
	return &userStore{client: client, cipher: cipher}
}

func (s *userStore) collection() *firestore.CollectionRef {
	return s.client.Collection("users")
}

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := s.collection().Doc(user.UID).Create(ctx, user); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errs.NewAlreadyExistsError("User already exists")
		}
		return errs.NewDatabaseError("user.create", err.Error())
	}
	return nil
}

func (s *userStore) Get(ctx context.Context, uid string) (*models.User, error) {
	doc, err := s.collection().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("User not found")
		}
		return nil, errs.NewDatabaseError("user.get", err.Error())
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errs.NewDatabaseError("user.get", err.Error())
	}

	// Access tokens are stored encrypted; hand the caller usable ones.
	for i := range user.Institutions {
		token, err := s.cipher.Decrypt(ctx, user.Institutions[i].AccessToken)
		if err != nil {
			return nil, errs.NewDatabaseError("user.get", err.Error())
		}
		user.Institutions[i].AccessToken = token
	}
	return &user, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := s.collection().Where("email", "==", email).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("user.getByEmail", err.Error())
	}
	if len(docs) == 0 {
		return nil, errs.NewNotFoundError("User not found")
	}

	var user models.User
	if err := docs[0].DataTo(&user); err != nil {
		return nil, errs.NewDatabaseError("user.getByEmail", err.Error())
	}
	return &user, nil
}

// AppendInstitution adds one linked institution to the user's list. The list
// is append-only; re-linking the same institution appends a second entry.
func (s *userStore) AppendInstitution(ctx context.Context, uid string, inst models.LinkedInstitution) error {
	encrypted, err := s.cipher.Encrypt(ctx, inst.AccessToken)
	if err != nil {
		return errs.NewDatabaseError("user.appendInstitution", err.Error())
	}
	inst.AccessToken = encrypted

	ref := s.collection().Doc(uid)
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var user models.User
		if err := doc.DataTo(&user); err != nil {
			return err
		}
		user.Institutions = append(user.Institutions, inst)
		user.UpdatedAt = time.Now()
		return tx.Set(ref, user)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errs.NewNotFoundError("User not found")
		}
		return errs.NewDatabaseError("user.appendInstitution", err.Error())
	}
	return nil
}

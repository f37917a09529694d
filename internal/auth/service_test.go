package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/GiftLink-io/giftlink/internal/models"
	"github.com/GiftLink-io/giftlink/internal/store"
)

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User

	calls     int
	echoOnUpd bool // whether UpdateUser echoes the updated document back
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail:   map[string]*models.User{},
		byID:      map[string]*models.User{},
		echoOnUpd: true,
	}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	f.calls++
	if _, ok := f.byEmail[user.Email]; ok {
		return store.ErrDuplicateEmail
	}
	user.ID = primitive.NewObjectID()
	f.byEmail[user.Email] = user
	f.byID[user.ID.Hex()] = user
	return nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.calls++
	user, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.calls++
	user, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) UpdateUser(_ context.Context, id string, changes store.UserChanges) (*models.User, error) {
	f.calls++
	user, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if changes.FirstName != nil {
		user.FirstName = *changes.FirstName
	}
	if changes.LastName != nil {
		user.LastName = *changes.LastName
	}
	now := time.Now().UTC()
	user.UpdatedAt = &now
	if !f.echoOnUpd {
		return nil, nil
	}
	return user, nil
}

func newTestService(users UserStore) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := NewHasher(bcrypt.MinCost)
	tokens := NewTokenManager(testSecret, time.Hour)
	return NewService(users, hasher, tokens, logger, 6)
}

func validRegisterInput() RegisterInput {
	return RegisterInput{Email: "a@x.com", Password: "secret1", FirstName: "A", LastName: "B"}
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		users := newFakeUserStore()
		svc := newTestService(users)

		res, err := svc.Register(context.Background(), validRegisterInput())
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", res.Email)
		assert.NotEmpty(t, res.Token)

		// The token is bound to the new account's identifier.
		subject, err := svc.tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, users.byEmail["a@x.com"].ID.Hex(), subject)

		// The stored password is a hash, never the plaintext.
		stored := users.byEmail["a@x.com"].Password
		assert.NotEqual(t, "secret1", stored)
		assert.True(t, svc.hasher.Verify(stored, "secret1"))
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		svc := newTestService(newFakeUserStore())

		_, err := svc.Register(context.Background(), validRegisterInput())
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), validRegisterInput())
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("DuplicateFromStoreInsert", func(t *testing.T) {
		// Simulates losing the check-then-insert race: the existence check
		// passes but the unique index rejects the insert.
		users := newFakeUserStore()
		racer := validRegisterInput()
		racer.Email = "a@x.com"
		other := &models.User{Email: "a@x.com", ID: primitive.NewObjectID()}

		svc := newTestService(&raceStore{fakeUserStore: users, sneak: other})
		_, err := svc.Register(context.Background(), racer)
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("ValidationListsEveryViolation", func(t *testing.T) {
		svc := newTestService(newFakeUserStore())

		_, err := svc.Register(context.Background(), RegisterInput{Email: "nope", Password: "abc"})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)

		fields := make([]string, len(ve.Fields))
		for i, f := range ve.Fields {
			fields[i] = f.Field
		}
		assert.ElementsMatch(t, []string{"email", "password", "firstName", "lastName"}, fields)
	})
}

// raceStore inserts a conflicting user between the existence check and the
// insert, mimicking a concurrent registration.
type raceStore struct {
	*fakeUserStore
	sneak *models.User
}

func (r *raceStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := r.fakeUserStore.GetUserByEmail(ctx, email)
	if err != nil {
		r.fakeUserStore.byEmail[r.sneak.Email] = r.sneak
		r.fakeUserStore.byID[r.sneak.ID.Hex()] = r.sneak
	}
	return user, err
}

func TestLogin(t *testing.T) {
	seed := func(t *testing.T) (*Service, *fakeUserStore) {
		users := newFakeUserStore()
		svc := newTestService(users)
		_, err := svc.Register(context.Background(), validRegisterInput())
		require.NoError(t, err)
		return svc, users
	}

	t.Run("Success", func(t *testing.T) {
		svc, users := seed(t)

		res, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "A", res.FirstName)
		assert.Equal(t, "a@x.com", res.Email)

		subject, err := svc.tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, users.byEmail["a@x.com"].ID.Hex(), subject)
	})

	t.Run("WrongPasswordAndUnknownEmailAreIndistinguishable", func(t *testing.T) {
		svc, _ := seed(t)

		_, errWrongPass := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "wrong-pass"})
		_, errNoUser := svc.Login(context.Background(), LoginInput{Email: "ghost@x.com", Password: "whatever"})

		assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
		assert.ErrorIs(t, errNoUser, ErrInvalidCredentials)
		assert.Equal(t, errWrongPass.Error(), errNoUser.Error())
	})

	t.Run("RepeatedFailuresNoLockout", func(t *testing.T) {
		svc, _ := seed(t)

		for i := 0; i < 3; i++ {
			_, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "wrong-pass"})
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}
		_, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret1"})
		assert.NoError(t, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	seed := func(t *testing.T) (*Service, *fakeUserStore, string) {
		users := newFakeUserStore()
		svc := newTestService(users)
		res, err := svc.Register(context.Background(), validRegisterInput())
		require.NoError(t, err)
		subject, err := svc.tokens.Verify(res.Token)
		require.NoError(t, err)
		return svc, users, subject
	}

	t.Run("PartialUpdateKeepsUnspecifiedFields", func(t *testing.T) {
		svc, users, subject := seed(t)

		first := "Anna"
		res, err := svc.UpdateProfile(context.Background(), subject, UpdateInput{FirstName: &first})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)

		user := users.byID[subject]
		assert.Equal(t, "Anna", user.FirstName)
		assert.Equal(t, "B", user.LastName, "unspecified fields must not change")
		assert.Equal(t, "a@x.com", user.Email)
		require.NotNil(t, user.UpdatedAt)
	})

	t.Run("AppliedWithoutEchoIsStillSuccess", func(t *testing.T) {
		svc, users, subject := seed(t)
		users.echoOnUpd = false

		first := "Anna"
		res, err := svc.UpdateProfile(context.Background(), subject, UpdateInput{FirstName: &first})
		require.NoError(t, err)

		reissued, err := svc.tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, subject, reissued)
	})

	t.Run("EmptySuppliedFieldRejected", func(t *testing.T) {
		svc, _, subject := seed(t)

		empty := ""
		_, err := svc.UpdateProfile(context.Background(), subject, UpdateInput{FirstName: &empty})
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("UnknownSubjectIsNotFound", func(t *testing.T) {
		svc, _, _ := seed(t)

		first := "Anna"
		_, err := svc.UpdateProfile(context.Background(), primitive.NewObjectID().Hex(), UpdateInput{FirstName: &first})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

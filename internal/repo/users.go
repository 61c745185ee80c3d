package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

// Password length limits enforced by AddUser. bcrypt only reads the first
// 72 bytes.
const (
	MinPasswordLength = 4
	MaxPasswordLength = 72
)

// NormalizeUsername trims surrounding space and applies Unicode NFC, so
// visually identical names stored from different clients compare equal.
func NormalizeUsername(username string) string {
	return norm.NFC.String(strings.TrimSpace(username))
}

// AddUser registers username with a bcrypt hash of password and returns the
// stored user. Returns an error matching shop.ErrDuplicateKey if the name is taken.
func (r *Repository) AddUser(ctx context.Context, username, password string) (shop.User, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return shop.User{}, r.fail("add user failed", invalid("username is required"))
	}
	if len(password) < MinPasswordLength {
		return shop.User{}, r.fail("add user failed",
			invalid("password must be at least %d characters", MinPasswordLength), "username", username)
	}
	if len(password) > MaxPasswordLength {
		return shop.User{}, r.fail("add user failed",
			invalid("password must be at most %d bytes", MaxPasswordLength), "username", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return shop.User{}, r.fail("add user failed", fmt.Errorf("hash password: %w", err), "username", username)
	}

	var u shop.User
	err = r.atomically(ctx, func(b store.Backend) error {
		id, err := nextID(ctx, b, store.Users)
		if err != nil {
			return err
		}
		u = shop.User{ID: id, Username: username, PasswordHash: string(hash)}
		return b.Insert(ctx, store.Users, store.UserRecord(u))
	})
	if err != nil {
		return shop.User{}, r.fail("add user failed", fmt.Errorf("add user %q: %w", username, err), "username", username)
	}

	r.logger.Info("user added", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// GetAllUsers returns every user ordered by id.
func (r *Repository) GetAllUsers(ctx context.Context) ([]shop.User, error) {
	users, err := selectAll(ctx, r.backend, store.Users, store.UserFromRecord)
	if err != nil {
		return nil, r.fail("get users failed", fmt.Errorf("get users: %w", err))
	}
	return users, nil
}

// GetUserByUsername returns the user named username, or an error matching
// shop.ErrNotFound.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (shop.User, error) {
	username = NormalizeUsername(username)
	u, err := getUser(ctx, r.backend, username)
	if err != nil {
		err = fmt.Errorf("get user %q: %w", username, err)
		if !errors.Is(err, shop.ErrNotFound) {
			return shop.User{}, r.fail("get user failed", err, "username", username)
		}
		return shop.User{}, err
	}
	return u, nil
}

// LoginUser reports whether password matches the stored hash for username.
// An unknown username is not an error; it simply does not log in.
func (r *Repository) LoginUser(ctx context.Context, username, password string) (bool, error) {
	u, err := r.GetUserByUsername(ctx, username)
	if errors.Is(err, shop.ErrNotFound) {
		r.logger.Info("login rejected", "username", NormalizeUsername(username), "reason", "unknown user")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			r.logger.Info("login rejected", "username", u.Username, "reason", "wrong password")
			return false, nil
		}
		return false, r.fail("login failed", fmt.Errorf("login %q: %w", u.Username, err), "username", u.Username)
	}

	r.logger.Info("login accepted", "user_id", u.ID, "username", u.Username)
	return true, nil
}

func getUser(ctx context.Context, b store.Backend, username string) (shop.User, error) {
	return selectOne(ctx, b, store.Users, store.UserFromRecord, store.Eq("username", username))
}

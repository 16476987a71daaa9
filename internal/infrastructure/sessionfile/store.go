// Package sessionfile keeps the site client's session in a small JSON file.
// The session is stored as an HS256 token so a hand-edited or stale file is
// rejected on load.
package sessionfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	domain "github.com/aimatrix/site/internal/domain/session"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "aimatrix-sitectl"

var (
	ErrNoSecret     = errors.New("sessionfile: signing secret is required")
	ErrInvalidToken = errors.New("sessionfile: stored session is invalid")
)

type claims struct {
	User domain.User `json:"usr"`
	jwt.RegisteredClaims
}

// Store implements domain.Store on top of one file.
type Store struct {
	path   string
	secret []byte
	now    func() time.Time
}

func NewStore(path, secret string) (*Store, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Store{path: path, secret: []byte(secret), now: time.Now}, nil
}

func (s *Store) Load(ctx context.Context) (domain.Session, error) {
	_ = ctx
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Session{}, domain.ErrNoSession
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("sessionfile: read: %w", err)
	}

	var doc map[string]string
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	token, ok := doc[domain.StorageKey]
	if !ok || token == "" {
		return domain.Session{}, domain.ErrNoSession
	}

	var c claims
	_, err = jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.Session{}, domain.ErrExpired
	case err != nil:
		return domain.Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sess := domain.Session{User: c.User, ExpiresAt: c.ExpiresAt.Time.UTC()}
	if c.IssuedAt != nil {
		sess.IssuedAt = c.IssuedAt.Time.UTC()
	}
	return sess, nil
}

func (s *Store) Save(ctx context.Context, sess domain.Session) error {
	_ = ctx
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		User: sess.User,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sess.User.Email,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sessionfile: sign: %w", err)
	}

	raw, err := json.Marshal(map[string]string{domain.StorageKey: token})
	if err != nil {
		return fmt.Errorf("sessionfile: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("sessionfile: mkdir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("sessionfile: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("sessionfile: replace: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	_ = ctx
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("sessionfile: remove: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	domsession "github.com/aimatrix/site/internal/domain/session"
	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAuth struct {
	LoginFunc    func(ctx context.Context, email, password string) (domsession.User, error)
	RegisterFunc func(ctx context.Context, name, email, password string) error
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (domsession.User, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *mockAuth) Register(ctx context.Context, name, email, password string) error {
	return m.RegisterFunc(ctx, name, email, password)
}

var asha = domsession.User{ID: "u1", Name: "Asha", Email: "asha@example.com"}

func loginAs(u domsession.User) func(context.Context, string, string) (domsession.User, error) {
	return func(context.Context, string, string) (domsession.User, error) { return u, nil }
}

func TestLogin_StoresSession(t *testing.T) {
	store := memory.NewSessionStore()
	svc := NewService(&mockAuth{LoginFunc: loginAs(asha)}, store, time.Hour, nil)

	sess, err := svc.Login(context.Background(), "asha@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, asha, sess.User)

	cur, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, asha, cur.User)
}

func TestLogin_RejectedStoresNothing(t *testing.T) {
	store := memory.NewSessionStore()
	svc := NewService(&mockAuth{LoginFunc: func(context.Context, string, string) (domsession.User, error) {
		return domsession.User{}, &provider.ProviderError{Provider: provider.Auth, Status: 401, Detail: "Invalid credentials"}
	}}, store, time.Hour, nil)

	_, err := svc.Login(context.Background(), "asha@example.com", "bad")

	pe, ok := provider.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid credentials", pe.Detail)
	_, err = svc.Current(context.Background())
	assert.ErrorIs(t, err, domsession.ErrNoSession)
}

func TestCurrent_ExpiredIsAbsent(t *testing.T) {
	store := memory.NewSessionStore()
	svc := NewService(&mockAuth{LoginFunc: loginAs(asha)}, store, time.Minute, nil)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	_, err := svc.Login(context.Background(), "asha@example.com", "pw")
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(time.Minute) }
	_, err = svc.Current(context.Background())
	assert.ErrorIs(t, err, domsession.ErrNoSession)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, domsession.ErrNoSession)
}

func TestLogout_ClearsSession(t *testing.T) {
	svc := NewService(&mockAuth{LoginFunc: loginAs(asha)}, memory.NewSessionStore(), time.Hour, nil)
	_, err := svc.Login(context.Background(), "asha@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background()))

	_, err = svc.Current(context.Background())
	assert.ErrorIs(t, err, domsession.ErrNoSession)
}

func TestRegister_DoesNotLogIn(t *testing.T) {
	var got []string
	svc := NewService(&mockAuth{RegisterFunc: func(_ context.Context, name, email, password string) error {
		got = []string{name, email, password}
		return nil
	}}, memory.NewSessionStore(), time.Hour, nil)

	require.NoError(t, svc.Register(context.Background(), "Asha", "asha@example.com", "pw"))

	assert.Equal(t, []string{"Asha", "asha@example.com", "pw"}, got)
	_, err := svc.Current(context.Background())
	assert.ErrorIs(t, err, domsession.ErrNoSession)
}

func TestRegister_WrapsFailure(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&mockAuth{RegisterFunc: func(context.Context, string, string, string) error { return boom }},
		memory.NewSessionStore(), time.Hour, nil)

	assert.ErrorIs(t, svc.Register(context.Background(), "Asha", "asha@example.com", "pw"), boom)
}

package memory

import (
	"context"
	"testing"
	"time"

	domain "github.com/aimatrix/site/internal/domain/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)

	sess, err := domain.New(domain.User{Name: "Asha", Email: "asha@example.com"}, time.Now(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sess))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "ada@example.com", "hash", "Ada")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = s.CreateUser(ctx, "ada@example.com", "other", "Ada Two")
	assert.ErrorIs(t, err, ErrDuplicate)

	byEmail, err := s.UserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)

	_, err = s.UserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UserByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	renamed, err := s.UpdateUserName(ctx, u.ID, "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", renamed.Name)
	assert.False(t, renamed.UpdatedAt.Before(renamed.CreatedAt))

	_, err = s.UpdateUserName(ctx, 9999, "Nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserDeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "cascade@example.com", "hash", "Cascade")
	require.NoError(t, err)
	_, err = s.CreateTranscription(ctx, u.ID, "", "some text")
	require.NoError(t, err)
	_, err = s.CreateDictionaryEntry(ctx, u.ID, "k", "K")
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", u.ID)
	require.NoError(t, err)

	items, total, err := s.ListTranscriptions(ctx, u.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)

	entries, err := s.ListDictionary(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/pkg/session"
)

func TestNew(t *testing.T) {
	t.Parallel()

	sess := session.New()

	assert.NotEmpty(t, sess.ID)
	assert.True(t, sess.IsNew())
	assert.True(t, sess.IsDirty())
	assert.NotNil(t, sess.Values)
	assert.Equal(t, 1800*time.Second, sess.MaxInactiveInterval)
	assert.Equal(t, sess.CreatedAt, sess.LastActiveAt)
	assert.False(t, sess.Invalidated)
}

func TestNew_UniqueIDs(t *testing.T) {
	t.Parallel()

	a, b := session.New(), session.New()
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSession_Values(t *testing.T) {
	t.Parallel()

	sess := session.NewWithID("id")
	sess.ClearDirty()

	require.NoError(t, sess.Set("key", "value"))
	assert.True(t, sess.IsDirty())

	val, err := sess.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "value", val)

	missing, err := sess.Get("nonexistent")
	require.NoError(t, err)
	assert.Nil(t, missing)

	keys, err := sess.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"key"}, keys)
}

func TestSession_SetNilRemoves(t *testing.T) {
	t.Parallel()

	sess := session.NewWithID("id")
	require.NoError(t, sess.Set("key", 1))
	require.NoError(t, sess.Set("key", nil))

	keys, err := sess.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSession_Delete(t *testing.T) {
	t.Parallel()

	sess := session.NewWithID("id")
	require.NoError(t, sess.Set("key", "value"))
	sess.ClearDirty()

	require.NoError(t, sess.Delete("missing"))
	assert.False(t, sess.IsDirty(), "deleting a missing key must not dirty the session")

	require.NoError(t, sess.Delete("key"))
	assert.True(t, sess.IsDirty())
}

func TestSession_Invalidate(t *testing.T) {
	t.Parallel()

	sess := session.NewWithID("id")
	require.NoError(t, sess.Set("key", "value"))

	require.NoError(t, sess.Invalidate())
	assert.True(t, sess.Invalidated)
	assert.Empty(t, sess.Values)

	_, err := sess.Get("key")
	assert.ErrorIs(t, err, session.ErrInvalidated)
	assert.ErrorIs(t, sess.Set("key", "v"), session.ErrInvalidated)
	assert.ErrorIs(t, sess.Delete("key"), session.ErrInvalidated)
	_, err = sess.Keys()
	assert.ErrorIs(t, err, session.ErrInvalidated)
	_, err = sess.RegenerateID()
	assert.ErrorIs(t, err, session.ErrInvalidated)
	assert.ErrorIs(t, sess.Invalidate(), session.ErrInvalidated)
}

func TestSession_RegenerateID(t *testing.T) {
	t.Parallel()

	sess := session.NewWithID("original")
	sess.ClearDirty()

	id, err := sess.RegenerateID()
	require.NoError(t, err)
	assert.NotEqual(t, "original", id)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, "original", sess.PreviousID())
	assert.True(t, sess.IsDirty())

	// A second rotation before persisting keeps the first identifier to drop.
	_, err = sess.RegenerateID()
	require.NoError(t, err)
	assert.Equal(t, "original", sess.PreviousID())

	sess.ClearDirty()
	assert.Empty(t, sess.PreviousID())
}

func TestSession_Touch(t *testing.T) {
	t.Parallel()

	sess := session.NewWithID("id")
	sess.ClearDirty()
	at := sess.CreatedAt.Add(time.Minute)

	sess.Touch(at)
	assert.Equal(t, at, sess.LastActiveAt)
	assert.True(t, sess.IsDirty())
}

func TestSession_NewFlag(t *testing.T) {
	t.Parallel()

	sess := session.NewWithID("id")
	require.True(t, sess.IsNew())
	sess.ClearNew()
	assert.False(t, sess.IsNew())
}

func TestValue_TypedHelper(t *testing.T) {
	t.Parallel()

	sess := session.NewWithID("id")
	require.NoError(t, sess.Set("string", "hello"))
	require.NoError(t, sess.Set("int", 42))

	s, err := session.Value[string](sess, "string")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	i, err := session.Value[int](sess, "int")
	require.NoError(t, err)
	assert.Equal(t, 42, i)

	_, err = session.Value[int](sess, "string")
	assert.ErrorIs(t, err, session.ErrTypeMismatch)

	_, err = session.Value[string](sess, "nonexistent")
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = session.Value[string](nil, "key")
	assert.ErrorIs(t, err, session.ErrNotFound)

	assert.Equal(t, "hello", session.ValueOr(sess, "string", "default"))
	assert.Equal(t, "default", session.ValueOr(sess, "nonexistent", "default"))
	assert.Equal(t, 7, session.ValueOr(sess, "string", 7))
}

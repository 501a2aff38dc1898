package session_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storeadmin/app/session"
	"github.com/shashiranjanraj/storeadmin/pkg/testkit"
)

func TestStore_OpenReturnsExistingEditor(t *testing.T) {
	api := testkit.NewFakeAPI(t)
	seed(api)
	s := session.NewStore(newDeps(t, api, 0))
	ctx := context.Background()

	e1, snap, err := s.Open(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, e1.EditField(2, "2kg"))

	e2, snap2, err := s.Open(ctx, 42)
	require.NoError(t, err)
	assert.Same(t, e1, e2)
	assert.Equal(t, "2kg", snap2.Values[2])
	assert.Greater(t, snap2.Version, snap.Version)
	assert.Len(t, api.CallsTo(http.MethodGet, "/products/42"), 1)
}

func TestStore_GetAndClose(t *testing.T) {
	api := testkit.NewFakeAPI(t)
	seed(api)
	s := session.NewStore(newDeps(t, api, 0))

	_, err := s.Get(42)
	assert.ErrorIs(t, err, session.ErrNotFound)

	e, _, err := s.Open(context.Background(), 42)
	require.NoError(t, err)
	got, err := s.Get(42)
	require.NoError(t, err)
	assert.Same(t, e, got)

	require.NoError(t, s.Close(42))
	assert.Equal(t, session.StateIdle, e.State())
	assert.ErrorIs(t, s.Close(42), session.ErrNotFound)
	assert.Zero(t, s.Len())
}

func TestStore_OpenUnknownProduct(t *testing.T) {
	api := testkit.NewFakeAPI(t)
	s := session.NewStore(newDeps(t, api, 0))

	_, _, err := s.Open(context.Background(), 404)
	assert.Error(t, err)

	_, err = s.Get(404)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Zero(t, s.Len())
}

func TestStore_OpenAfterFailedSubmitKeepsWorkingCopy(t *testing.T) {
	api := testkit.NewFakeAPI(t)
	seed(api)
	api.Fail(http.MethodPost, "/p_specification", http.StatusInternalServerError, testkit.Times(1))
	s := session.NewStore(newDeps(t, api, 0))
	ctx := context.Background()

	e, _, err := s.Open(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, e.EditField(2, "2kg"))
	_, err = e.Submit(ctx)
	require.Error(t, err)
	require.Equal(t, session.StateFailed, e.State())

	again, snap, err := s.Open(ctx, 42)
	require.NoError(t, err)
	assert.Same(t, e, again)
	assert.Equal(t, session.StateFailed, snap.State)
	assert.Equal(t, "2kg", snap.Values[2])
	assert.Len(t, api.CallsTo(http.MethodGet, "/products/42"), 1)

	_, err = again.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.StateIdle, again.State())
}

func TestStore_CloseAll(t *testing.T) {
	api := testkit.NewFakeAPI(t)
	seed(api)
	s := session.NewStore(newDeps(t, api, 0))
	e, _, err := s.Open(context.Background(), 42)
	require.NoError(t, err)

	s.CloseAll()
	assert.Equal(t, session.StateIdle, e.State())
	assert.Zero(t, s.Len())
}

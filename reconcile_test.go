package splitauth_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sa "github.com/tabsplit/splitauth"
	"github.com/tabsplit/splitauth/stores"
)

func newTestStore(t *testing.T) *stores.FileStore {
	t.Helper()
	return stores.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
}

func TestReconcileCreatesRecord(t *testing.T) {
	store := newTestStore(t)
	rc := &sa.Reconciler{Store: store}

	user, err := rc.Reconcile(sa.Assertion{
		ExternalID:  "g1",
		DisplayName: "Ann G",
		Email:       "ann@x.com",
		AvatarURL:   "u",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	assert.Equal(t, "g1", user.ExternalID)
	assert.Equal(t, "Ann G", user.DisplayName)
	assert.Equal(t, "ann@x.com", user.Email)
	assert.Equal(t, "u", user.AvatarURL)
	assert.Empty(t, user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())

	records, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rc := &sa.Reconciler{Store: store, Now: func() time.Time { return clock }}

	assertion := sa.Assertion{ExternalID: "g1", DisplayName: "Ann G", Email: "ann@x.com", AvatarURL: "u"}

	first, err := rc.Reconcile(assertion)
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	second, err := rc.Reconcile(assertion)
	require.NoError(t, err)

	records, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "replaying the same assertion must not create a second record")

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.LastLoginAt.After(first.LastLoginAt), "LastLoginAt should advance")
}

func TestReconcileMatchesEmailCaseInsensitively(t *testing.T) {
	store := newTestStore(t)
	rc := &sa.Reconciler{Store: store}

	first, err := rc.Reconcile(sa.Assertion{ExternalID: "g1", DisplayName: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)

	second, err := rc.Reconcile(sa.Assertion{ExternalID: "g1", DisplayName: "Ann", Email: "ANN@X.COM"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	records, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestReconcileMergesIntoLocalAccount(t *testing.T) {
	store := newTestStore(t)

	// Seed a locally-registered account the way the registration path does.
	var h sa.Hasher
	hash, err := h.Hash("longenough1")
	require.NoError(t, err)
	seed := sa.UserRecord{
		ID:           "local-1",
		DisplayName:  "Ann",
		Email:        "ann@x.com",
		PasswordHash: hash,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LastLoginAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveAll([]sa.UserRecord{seed}))

	rc := &sa.Reconciler{Store: store}
	merged, err := rc.Reconcile(sa.Assertion{
		ExternalID:  "g1",
		DisplayName: "Ann G",
		Email:       "ann@x.com",
		AvatarURL:   "u",
	})
	require.NoError(t, err)

	assert.Equal(t, "local-1", merged.ID, "id must survive the merge")
	assert.Equal(t, "g1", merged.ExternalID)
	assert.Equal(t, "Ann G", merged.DisplayName)
	assert.Equal(t, hash, merged.PasswordHash, "delegated login must not touch the password hash")
	assert.Equal(t, seed.CreatedAt, merged.CreatedAt)

	records, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, hash, records[0].PasswordHash)
}

func TestReconcileRejectsIncompleteAssertions(t *testing.T) {
	rc := &sa.Reconciler{Store: newTestStore(t)}

	_, err := rc.Reconcile(sa.Assertion{ExternalID: "g1"})
	assert.Error(t, err, "assertion without email")

	_, err = rc.Reconcile(sa.Assertion{Email: "ann@x.com"})
	assert.Error(t, err, "assertion without subject id")
}

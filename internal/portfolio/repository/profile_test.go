package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sheetfolio/portfolio-backend/internal/portfolio/domain"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/schema"
	"github.com/sheetfolio/portfolio-backend/internal/sheets/sheetstest"
)

func newTestProfiles(t *testing.T) (*ProfileStore, *sheetstest.Fake) {
	t.Helper()
	fake := sheetstest.NewFake()
	log := zap.NewNop()

	prov := NewProvisioner(fake, schema.NewRegistry(), log)
	prov.retryCfg = fastRetry

	store := NewProfileStore(fake, prov, log)
	store.retryCfg = fastRetry
	return store, fake
}

func TestProfileStore_CreateAndFetch(t *testing.T) {
	store, fake := newTestProfiles(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "alice", map[string]any{
		"pin":       "4321",
		"full_name": "Alice Doe",
		"headline":  "Backend engineer",
	}))

	profile, err := store.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "Alice Doe", profile.FullName)
	assert.Equal(t, "Backend engineer", profile.Headline)
	assert.Equal(t, "classic", profile.Theme, "defaults populated")
	assert.True(t, profile.Public)
	assert.Empty(t, profile.Issues)

	t.Run("fetch is case-insensitive", func(t *testing.T) {
		got, err := store.Fetch(ctx, "ALICE")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("pin is stored hashed, never cleartext", func(t *testing.T) {
		rows := fake.Rows("Users")
		require.GreaterOrEqual(t, len(rows), 2)
		pinCol := indexOf(rows[0], "pin")
		require.GreaterOrEqual(t, pinCol, 0)
		assert.True(t, strings.HasPrefix(rows[1][pinCol], "$2"), "bcrypt hash expected")
		assert.NotContains(t, rows[1], "4321")
	})

	t.Run("absent tenant is NotFound", func(t *testing.T) {
		_, err := store.Fetch(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestProfileStore_CreateRetryAfterLostResponseDoesNotDuplicate(t *testing.T) {
	store, fake := newTestProfiles(t)
	ctx := context.Background()

	fake.LoseNextAppend = assert.AnError

	require.NoError(t, store.Create(ctx, "alice", map[string]any{
		"pin":       "4321",
		"full_name": "Alice Doe",
	}))

	rows := fake.Rows("Users")
	assert.Len(t, rows, 2, "header plus a single profile row despite the retried append")

	profile, err := store.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice Doe", profile.FullName)
}

func TestProfileStore_CreateValidation(t *testing.T) {
	store, _ := newTestProfiles(t)

	err := store.Create(context.Background(), "alice", map[string]any{"pin": "4321"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "full_name")
}

func TestProfileStore_Update(t *testing.T) {
	store, _ := newTestProfiles(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "alice", map[string]any{
		"pin":       "4321",
		"full_name": "Alice Doe",
	}))

	require.NoError(t, store.Update(ctx, "alice", map[string]any{
		"headline":        "Now a manager",
		"dark_mode":       true,
		"hidden_sections": []string{"awards"},
	}))

	profile, err := store.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Now a manager", profile.Headline)
	assert.True(t, profile.DarkMode)
	assert.Equal(t, []string{"awards"}, profile.HiddenSections)
	assert.Equal(t, "Alice Doe", profile.FullName, "unsupplied fields untouched")

	t.Run("pin survives unrelated updates", func(t *testing.T) {
		ok, err := store.VerifyPIN(ctx, "alice", "4321")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("updating an absent tenant is NotFound", func(t *testing.T) {
		err := store.Update(ctx, "nobody", map[string]any{"headline": "x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestProfileStore_CustomSections(t *testing.T) {
	store, _ := newTestProfiles(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "alice", map[string]any{
		"pin":       "4321",
		"full_name": "Alice Doe",
		"custom_sections": `[{"id":"talks","title":"Talks","type":"list",` +
			`"visible":true,"items":["GopherCon"]}]`,
	}))

	profile, err := store.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, profile.CustomSections, 1)
	assert.Equal(t, "Talks", profile.CustomSections[0].Title)
	assert.Equal(t, []string{"GopherCon"}, profile.CustomSections[0].Items)
	assert.Empty(t, profile.Issues)
}

func TestProfileStore_DegradedCustomSectionsBlob(t *testing.T) {
	store, fake := newTestProfiles(t)
	ctx := context.Background()

	def := schema.ProfileDefinition()
	fake.Seed("Users", [][]string{
		def.Headers(),
		{"alice", "$2a$10$abcdefghijklmnopqrstuv", "Alice Doe", "", "", "", "", "classic", "", "TRUE", "TRUE", "FALSE", "", "", "{not json"},
	})

	profile, err := store.Fetch(ctx, "alice")
	require.NoError(t, err, "corrupt layout blob degrades, it never fails the fetch")
	assert.Empty(t, profile.CustomSections)
	assert.NotEmpty(t, profile.Issues)
}

func TestProfileStore_VerifyPIN(t *testing.T) {
	store, fake := newTestProfiles(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "alice", map[string]any{
		"pin":       "4321",
		"full_name": "Alice Doe",
	}))

	t.Run("correct pin", func(t *testing.T) {
		ok, err := store.VerifyPIN(ctx, "alice", "4321")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong pin", func(t *testing.T) {
		ok, err := store.VerifyPIN(ctx, "alice", "9999")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("absent tenant", func(t *testing.T) {
		_, err := store.VerifyPIN(ctx, "nobody", "4321")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("legacy cleartext pin verifies and upgrades", func(t *testing.T) {
		def := schema.ProfileDefinition()
		fake.Seed("Users", [][]string{
			def.Headers(),
			{"bob", "1111", "Bob Roe", "", "", "", "", "", "", "TRUE", "TRUE", "FALSE", "", "", "[]"},
		})

		ok, err := store.VerifyPIN(ctx, "bob", "1111")
		require.NoError(t, err)
		assert.True(t, ok)

		rows := fake.Rows("Users")
		pinCol := indexOf(rows[0], "pin")
		assert.True(t, strings.HasPrefix(rows[1][pinCol], "$2"), "cleartext upgraded to hash")

		ok, err = store.VerifyPIN(ctx, "bob", "1111")
		require.NoError(t, err)
		assert.True(t, ok, "pin still verifies after the upgrade")
	})
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

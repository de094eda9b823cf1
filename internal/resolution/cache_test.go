package resolution

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/store"
)

func newCacheStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestLoadCacheNewestSubmissionWins(t *testing.T) {
	ctx := context.Background()
	st := newCacheStore(t)

	require.NoError(t, st.CreateApplication(ctx, &model.Application{
		Reference: "APP/1",
		Type:      model.AppTypeHouseholder,
		Metadata: map[string]any{
			model.MetaResolvedFields: map[string]any{
				"site_address": "old app-level value",
				"parish":       "st mary",
			},
		},
	}))
	require.NoError(t, st.CreateSubmission(ctx, &model.Submission{
		ID: "sub-0", ApplicationRef: "APP/1", Version: 0,
		Metadata: map[string]any{
			model.MetaResolvedFields: map[string]any{"site_address": "1 High St"},
		},
	}))
	require.NoError(t, st.CreateSubmission(ctx, &model.Submission{
		ID: "sub-1", ApplicationRef: "APP/1", Version: 1, ParentID: "sub-0",
		Metadata: map[string]any{
			model.MetaResolvedFields: map[string]any{"site_address": "1 High Street"},
		},
	}))

	cache, err := LoadCache(ctx, st, "APP/1", "sub-1")
	require.NoError(t, err)

	v, ok := cache.Lookup("site_address")
	require.True(t, ok)
	assert.Equal(t, "1 High Street", v)

	// Application-scoped entries survive when no submission overrides them.
	v, ok = cache.Lookup("parish")
	require.True(t, ok)
	assert.Equal(t, "st mary", v)
}

func TestCacheUnresolved(t *testing.T) {
	cache := &Cache{
		values: map[string]any{"fee_amount": 258.0},
		dirty:  map[string]any{},
	}
	assert.Equal(t, []string{"site_address"}, cache.Unresolved([]string{"fee_amount", "site_address"}))
	assert.Nil(t, cache.Unresolved([]string{"fee_amount"}))
}

func TestMergeAndStoreWritesBothScopes(t *testing.T) {
	ctx := context.Background()
	st := newCacheStore(t)
	require.NoError(t, st.CreateApplication(ctx, &model.Application{
		Reference: "APP/1", Type: model.AppTypeHouseholder,
	}))
	require.NoError(t, st.CreateSubmission(ctx, &model.Submission{
		ID: "sub-0", ApplicationRef: "APP/1",
	}))

	cache, err := LoadCache(ctx, st, "APP/1", "sub-0")
	require.NoError(t, err)
	cache.Put(map[string]any{"fee_amount": 258.0})
	require.NoError(t, cache.MergeAndStore(ctx, st))

	sub, err := st.GetSubmission(ctx, "sub-0")
	require.NoError(t, err)
	assert.Equal(t, 258.0, sub.ResolvedFields()["fee_amount"])

	app, err := st.GetApplication(ctx, "APP/1")
	require.NoError(t, err)
	appFields, _ := app.Metadata[model.MetaResolvedFields].(map[string]any)
	assert.Equal(t, 258.0, appFields["fee_amount"])

	// Dirty set is consumed by the write-back; a second store is a no-op.
	require.NoError(t, cache.MergeAndStore(ctx, st))
}

func TestMergeAndStorePreservesOtherKeys(t *testing.T) {
	ctx := context.Background()
	st := newCacheStore(t)
	require.NoError(t, st.CreateApplication(ctx, &model.Application{
		Reference: "APP/1", Type: model.AppTypeHouseholder,
	}))
	require.NoError(t, st.CreateSubmission(ctx, &model.Submission{
		ID: "sub-0", ApplicationRef: "APP/1",
		Metadata: map[string]any{
			model.MetaResolvedFields: map[string]any{"site_address": "1 High St"},
		},
	}))

	cache, err := LoadCache(ctx, st, "APP/1", "sub-0")
	require.NoError(t, err)
	cache.Put(map[string]any{"fee_amount": 258.0})
	require.NoError(t, cache.MergeAndStore(ctx, st))

	sub, err := st.GetSubmission(ctx, "sub-0")
	require.NoError(t, err)
	resolved := sub.ResolvedFields()
	assert.Equal(t, "1 High St", resolved["site_address"])
	assert.Equal(t, 258.0, resolved["fee_amount"])
}

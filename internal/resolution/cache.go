package resolution

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/store"
)

// Cache is the working copy of the resolved-field cache for one
// application. It merges the application-scoped entry with every
// submission's entry, newest submission winning key collisions, and tracks
// additions separately so MergeAndStore writes back only what this run
// resolved. Safe for concurrent use by parallel document workers.
type Cache struct {
	mu             sync.Mutex
	escalation     sync.Mutex // serializes model calls, see Gate.Process
	applicationRef string
	submissionID   string
	values         map[string]any
	dirty          map[string]any
}

// LoadCache builds the working cache for a submission's application.
func LoadCache(ctx context.Context, st store.Store, applicationRef, submissionID string) (*Cache, error) {
	c := &Cache{
		applicationRef: applicationRef,
		submissionID:   submissionID,
		values:         map[string]any{},
		dirty:          map[string]any{},
	}

	app, err := st.GetApplication(ctx, applicationRef)
	if err != nil {
		return nil, eris.Wrapf(err, "resolution: loading application %s", applicationRef)
	}
	if raw, ok := app.Metadata[model.MetaResolvedFields].(map[string]any); ok {
		for k, v := range raw {
			c.values[k] = v
		}
	}

	subs, err := st.ListSubmissions(ctx, applicationRef)
	if err != nil {
		return nil, eris.Wrapf(err, "resolution: listing submissions for %s", applicationRef)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Version < subs[j].Version })
	for _, sub := range subs {
		for k, v := range sub.ResolvedFields() {
			c.values[k] = v
		}
	}
	return c, nil
}

// Lookup returns the cached value for a field name.
func (c *Cache) Lookup(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[name]
	return v, ok
}

// Unresolved filters the field list down to names the cache cannot answer.
func (c *Cache) Unresolved(fields []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, name := range fields {
		if _, ok := c.values[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// Put records newly resolved values in the working copy and marks them for
// write-back.
func (c *Cache) Put(values map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range values {
		c.values[k] = v
		c.dirty[k] = v
	}
}

// Snapshot returns a copy of the merged cache contents.
func (c *Cache) Snapshot() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// MergeAndStore persists the run's additions to both the submission and
// the application metadata, so later submissions of the same application
// inherit them. The store merge is deep, so workers resolving different
// fields concurrently do not clobber each other.
func (c *Cache) MergeAndStore(ctx context.Context, st store.Store) error {
	c.mu.Lock()
	if len(c.dirty) == 0 {
		c.mu.Unlock()
		return nil
	}
	patch := make(map[string]any, len(c.dirty))
	for k, v := range c.dirty {
		patch[k] = v
	}
	c.dirty = map[string]any{}
	c.mu.Unlock()

	update := map[string]any{model.MetaResolvedFields: patch}
	if err := st.MergeSubmissionMetadata(ctx, c.submissionID, update); err != nil {
		return eris.Wrapf(err, "resolution: persisting cache to submission %s", c.submissionID)
	}
	if err := st.MergeApplicationMetadata(ctx, c.applicationRef, update); err != nil {
		return eris.Wrapf(err, "resolution: persisting cache to application %s", c.applicationRef)
	}
	return nil
}

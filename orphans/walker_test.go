package orphans_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannajonsd/pip-remove/metadata"
	"github.com/hannajonsd/pip-remove/orphans"
)

// graph is an in-memory provider: name -> requires, name -> required-by
type graph struct {
	requires   map[string][]string
	requiredBy map[string][]string
	failing    map[string]error
	lookups    atomic.Int32
}

func (g *graph) Lookup(_ context.Context, name string) (metadata.Package, error) {
	g.lookups.Add(1)
	if err, ok := g.failing[metadata.Key(name)]; ok {
		return metadata.Package{}, err
	}
	for n := range g.requires {
		if metadata.Key(n) == metadata.Key(name) {
			return metadata.Package{Name: n, Requires: g.requires[n], RequiredBy: g.requiredBy[n], Found: true}, nil
		}
	}
	for n := range g.requiredBy {
		if metadata.Key(n) == metadata.Key(name) {
			return metadata.Package{Name: n, Requires: []string{}, RequiredBy: g.requiredBy[n], Found: true}, nil
		}
	}
	return metadata.Package{Name: name, Requires: []string{}, RequiredBy: []string{}}, nil
}

// hasMember reports whether s holds a name with the same key as name
func hasMember(s *orphans.Set, name string) bool {
	for _, n := range s.Names() {
		if metadata.Key(n) == metadata.Key(name) {
			return true
		}
	}
	return false
}

func flaskGraph() *graph {
	return &graph{
		requires: map[string][]string{
			"flask": {"blinker>=1.9", "click>=8.1.3", "itsdangerous>=2.2", "Jinja2>=3.1.2", "MarkupSafe>=2.1.1", "Werkzeug>=3.1"},
		},
		requiredBy: map[string][]string{
			"blinker":      {"flask"},
			"click":        {"flask", "black"},
			"itsdangerous": {"flask"},
			"Jinja2":       {"flask"},
			"MarkupSafe":   {"flask"},
			"Werkzeug":     {"flask"},
		},
	}
}

func TestResolveFlaskScenario(t *testing.T) {
	t.Parallel()

	walker := orphans.NewWalker(flaskGraph())

	got, err := walker.Resolve(context.Background(), "flask")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"blinker", "itsdangerous", "Jinja2", "MarkupSafe", "Werkzeug"}, got.Names())
	assert.False(t, hasMember(got, "click"))
	assert.False(t, hasMember(got, "flask"))
}

func TestResolveIsTransitive(t *testing.T) {
	t.Parallel()

	g := &graph{
		requires: map[string][]string{
			"flask":  {"Jinja2"},
			"Jinja2": {"MarkupSafe>=2.0"},
		},
		requiredBy: map[string][]string{
			"Jinja2":     {"flask"},
			"MarkupSafe": {"Jinja2"},
		},
	}

	got, err := orphans.NewWalker(g).Resolve(context.Background(), "flask")
	require.NoError(t, err)
	assert.Equal(t, []string{"Jinja2", "MarkupSafe"}, got.Names())
}

func TestResolvePreservesSharedBranch(t *testing.T) {
	t.Parallel()

	g := &graph{
		requires: map[string][]string{
			"app":    {"shared", "solo"},
			"shared": {"below-shared"},
		},
		requiredBy: map[string][]string{
			"shared":       {"app", "other"},
			"below-shared": {"shared"},
			"solo":         {"app"},
		},
	}

	got, err := orphans.NewWalker(g).Resolve(context.Background(), "app")
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, got.Names())
	assert.False(t, hasMember(got, "shared"))
	assert.False(t, hasMember(got, "below-shared"))
}

func TestResolveTerminatesOnCycles(t *testing.T) {
	t.Parallel()

	g := &graph{
		requires: map[string][]string{
			"target": {"a"},
			"a":      {"b"},
			"b":      {"a", "target"},
		},
		requiredBy: map[string][]string{
			"a": {"target"},
			"b": {"a"},
		},
	}

	got, err := orphans.NewWalker(g).Resolve(context.Background(), "target")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Names())
}

func TestResolveNeverIncludesTarget(t *testing.T) {
	t.Parallel()

	g := &graph{
		requires: map[string][]string{
			"Self-Ref": {"self_ref", "dep"},
		},
		requiredBy: map[string][]string{
			"dep": {"Self-Ref"},
		},
	}

	got, err := orphans.NewWalker(g).Resolve(context.Background(), "self-ref")
	require.NoError(t, err)
	assert.Equal(t, []string{"dep"}, got.Names())
	assert.False(t, hasMember(got, "Self-Ref"))
}

func TestResolveMissingMetadataIsLeaf(t *testing.T) {
	t.Parallel()

	g := &graph{
		requires: map[string][]string{
			"click": {"colorama; platform_system == \"Windows\""},
		},
	}

	got, err := orphans.NewWalker(g).Resolve(context.Background(), "click")
	require.NoError(t, err)
	assert.Equal(t, []string{"colorama"}, got.Names())
}

func TestResolveFailsClosedOnQueryErrors(t *testing.T) {
	t.Parallel()

	g := flaskGraph()
	g.failing = map[string]error{
		"werkzeug": metadata.ErrQueryTimeout,
		"blinker":  metadata.ErrQueryFailed,
	}

	got, err := orphans.NewWalker(g).Resolve(context.Background(), "flask")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"itsdangerous", "Jinja2", "MarkupSafe"}, got.Names())
}

func TestResolveDeduplicatesAcrossPaths(t *testing.T) {
	t.Parallel()

	g := &graph{
		requires: map[string][]string{
			"root":  {"left", "right"},
			"left":  {"leaf"},
			"right": {"LEAF"},
		},
		requiredBy: map[string][]string{
			"left":  {"root"},
			"right": {"root"},
			"leaf":  {"left"},
		},
	}

	walker := orphans.NewWalker(g, orphans.WithConcurrency(1))

	got, err := walker.Resolve(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, []string{"left", "right", "leaf"}, got.Names())
	// root, left, right, leaf: one query each.
	assert.Equal(t, int32(4), g.lookups.Load())
}

func TestResolveTargetNotInstalled(t *testing.T) {
	t.Parallel()

	got, err := orphans.NewWalker(flaskGraph()).Resolve(context.Background(), "django")
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestResolveTargetQueryFailure(t *testing.T) {
	t.Parallel()

	g := flaskGraph()
	g.failing = map[string]error{"flask": metadata.ErrQueryTimeout}

	got, err := orphans.NewWalker(g).Resolve(context.Background(), "flask")
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestResolveEmptyTarget(t *testing.T) {
	t.Parallel()

	_, err := orphans.NewWalker(flaskGraph()).Resolve(context.Background(), ">=1.0")
	assert.True(t, errors.Is(err, orphans.ErrEmptyTarget))
}

func TestResolveCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orphans.NewWalker(flaskGraph()).Resolve(ctx, "flask")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestResolveReportsProgress(t *testing.T) {
	t.Parallel()

	var seen atomic.Int32
	walker := orphans.NewWalker(flaskGraph(),
		orphans.WithConcurrency(3),
		orphans.WithProgress(func(string) { seen.Add(1) }))

	_, err := walker.Resolve(context.Background(), "flask")
	require.NoError(t, err)
	assert.Equal(t, int32(7), seen.Load())
}

// announcedProvider counts lookups of names the progress callback has not reported yet
type announcedProvider struct {
	inner     metadata.Provider
	announced sync.Map
	early     atomic.Int32
}

func (a *announcedProvider) Lookup(ctx context.Context, name string) (metadata.Package, error) {
	if _, ok := a.announced.Load(metadata.Key(name)); !ok {
		a.early.Add(1)
	}
	return a.inner.Lookup(ctx, name)
}

func TestResolveReportsProgressBeforeLookup(t *testing.T) {
	t.Parallel()

	provider := &announcedProvider{inner: flaskGraph()}
	walker := orphans.NewWalker(provider,
		orphans.WithConcurrency(3),
		orphans.WithProgress(func(name string) { provider.announced.Store(metadata.Key(name), true) }))

	_, err := walker.Resolve(context.Background(), "flask")
	require.NoError(t, err)
	assert.Zero(t, provider.early.Load())
}

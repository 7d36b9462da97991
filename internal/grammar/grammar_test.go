package grammar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/codehud/internal/lang"
)

func newTestPool(t *testing.T, only ...lang.ID) *Pool {
	t.Helper()
	p, err := New(only...)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestNew_BindsDefaults(t *testing.T) {
	t.Parallel()
	p := newTestPool(t)

	for _, id := range []lang.ID{lang.Go, lang.Python, lang.Rust, lang.TypeScript, lang.Java} {
		assert.True(t, p.Has(id), id.Name())
	}
	assert.Len(t, p.Bound(), len(bindings))
}

func TestNew_BoundSet(t *testing.T) {
	t.Parallel()
	p := newTestPool(t)

	for _, id := range []lang.ID{lang.Markdown, lang.HCL, lang.Proto, lang.Dockerfile} {
		assert.True(t, p.Has(id), id.Name())
	}
	for _, id := range []lang.ID{lang.OCaml, lang.JSON, lang.Zig} {
		assert.False(t, p.Has(id), id.Name())
	}
}

func TestNew_NothingBindable(t *testing.T) {
	t.Parallel()
	_, err := New(lang.Zig, lang.Nix)
	require.ErrorIs(t, err, ErrNoGrammars)
}

func TestGet_UnavailableIsDistinct(t *testing.T) {
	t.Parallel()
	p := newTestPool(t, lang.Go)

	// Python is a recognized language, just not bound in this pool.
	_, err := p.Get(lang.Python)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrParse)

	g, err := p.Get(lang.Go)
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestParse(t *testing.T) {
	t.Parallel()
	p := newTestPool(t, lang.Go)

	tree, err := p.Parse(context.Background(), lang.Go, []byte("package main\n\nfunc main() {}\n"))
	require.NoError(t, err)
	defer tree.Close()
	assert.Equal(t, "source_file", tree.RootNode().Type())
}

func TestParse_InvalidEncoding(t *testing.T) {
	t.Parallel()
	p := newTestPool(t, lang.Go)

	_, err := p.Parse(context.Background(), lang.Go, []byte{'p', 0xff, 0xfe, 'x'})
	require.ErrorIs(t, err, ErrParse)
}

func TestParse_Unbound(t *testing.T) {
	t.Parallel()
	p := newTestPool(t, lang.Go)

	_, err := p.Parse(context.Background(), lang.Ruby, []byte("puts 1"))
	require.ErrorIs(t, err, ErrUnavailable)
}

package assets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpress/webpress/internal/registry"
)

func newTestCompressor(t *testing.T, debug bool) *Compressor {
	t.Helper()
	c, err := New(Options{
		StaticRoot: t.TempDir(),
		URLPrefix:  "/_webpress",
		Debug:      debug,
	})
	require.NoError(t, err)
	return c
}

func registerUpper(t *testing.T, c *Compressor) {
	t.Helper()
	require.NoError(t, c.RegisterProcessor("upper", func(_ context.Context, content string) (string, error) {
		return strings.ToUpper(content), nil
	}, false))
}

func registerReverse(t *testing.T, c *Compressor) {
	t.Helper()
	require.NoError(t, c.RegisterProcessor("reverse", func(_ context.Context, content string) (string, error) {
		runes := []rune(content)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes), nil
	}, false))
}

// countingProcessor returns an identity transform that counts invocations.
func countingProcessor(counter *atomic.Int64) registry.ProcessorFunc {
	return func(_ context.Context, content string) (string, error) {
		counter.Add(1)
		return content, nil
	}
}

func TestNewFileAsset_Validation(t *testing.T) {
	t.Run("rejects absolute path", func(t *testing.T) {
		_, err := NewFileAsset("style", "/etc/passwd")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "relative")
	})

	t.Run("rejects escaping path", func(t *testing.T) {
		_, err := NewFileAsset("style", "../outside.css")
		require.Error(t, err)
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := NewFileAsset("", "style.css")
		require.Error(t, err)
	})

	t.Run("accepts relative path", func(t *testing.T) {
		a, err := NewFileAsset("style", "css/style.css")
		require.NoError(t, err)
		assert.Equal(t, "style", a.Name())
	})
}

func TestAsset_InlineContent(t *testing.T) {
	c := newTestCompressor(t, false)
	registerUpper(t, c)
	ctx := context.Background()

	asset := NewAsset("first asset", "upper")

	raw, err := asset.RawContent(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "first asset", raw)

	content, err := asset.Content(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "FIRST ASSET", content)
}

func TestAsset_ChainOrderIsSignificant(t *testing.T) {
	c := newTestCompressor(t, false)
	require.NoError(t, c.RegisterProcessor("rename", func(_ context.Context, content string) (string, error) {
		return strings.ReplaceAll(content, "html", " body "), nil
	}, false))
	require.NoError(t, c.RegisterProcessor("retag", func(_ context.Context, content string) (string, error) {
		return strings.ReplaceAll(content, " body ", "p "), nil
	}, false))
	ctx := context.Background()

	source := "html { background-color: red; } "

	forward := NewAsset(source, "rename", "retag")
	backward := NewAsset(source, "retag", "rename")

	forwardContent, err := forward.Content(ctx, c)
	require.NoError(t, err)
	backwardContent, err := backward.Content(ctx, c)
	require.NoError(t, err)

	assert.Equal(t, "p  { background-color: red; } ", forwardContent)
	assert.Equal(t, " body  { background-color: red; } ", backwardContent)
	assert.NotEqual(t, forwardContent, backwardContent,
		"non-commuting processors must produce order-dependent results")
}

func TestAsset_UnknownProcessorFails(t *testing.T) {
	c := newTestCompressor(t, false)

	asset := NewAsset("content", "nonexistent")
	_, err := asset.Content(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestAsset_Memoization(t *testing.T) {
	t.Run("production mode computes once", func(t *testing.T) {
		c := newTestCompressor(t, false)
		var calls atomic.Int64
		require.NoError(t, c.RegisterProcessor("count", countingProcessor(&calls), false))
		ctx := context.Background()

		asset := NewAsset("content", "count")

		first, err := asset.Content(ctx, c)
		require.NoError(t, err)
		second, err := asset.Content(ctx, c)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int64(1), calls.Load(), "processor should run at most once per entity")
	})

	t.Run("debug mode recomputes every access", func(t *testing.T) {
		c := newTestCompressor(t, true)
		var calls atomic.Int64
		require.NoError(t, c.RegisterProcessor("count", countingProcessor(&calls), false))
		ctx := context.Background()

		asset := NewAsset("content", "count")

		_, err := asset.Content(ctx, c)
		require.NoError(t, err)
		_, err = asset.Content(ctx, c)
		require.NoError(t, err)

		assert.Equal(t, int64(2), calls.Load())
	})
}

func TestFileAsset_DebugModeSeesEdits(t *testing.T) {
	ctx := context.Background()

	write := func(t *testing.T, root, name, content string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}

	t.Run("debug re-reads the file", func(t *testing.T) {
		c := newTestCompressor(t, true)
		write(t, c.StaticRoot(), "app.css", "before")

		asset, err := NewFileAsset("app", "app.css")
		require.NoError(t, err)

		content, err := asset.Content(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, "before", content)

		write(t, c.StaticRoot(), "app.css", "after")

		content, err = asset.Content(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, "after", content)
	})

	t.Run("production caches the first read", func(t *testing.T) {
		c := newTestCompressor(t, false)
		write(t, c.StaticRoot(), "app.css", "before")

		asset, err := NewFileAsset("app", "app.css")
		require.NoError(t, err)

		content, err := asset.Content(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, "before", content)

		write(t, c.StaticRoot(), "app.css", "after")

		content, err = asset.Content(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, "before", content, "file changes on disk are not observed in production")
	})
}

func TestAsset_HashAndURL(t *testing.T) {
	c := newTestCompressor(t, false)
	ctx := context.Background()

	a1 := NewAsset("same content")
	a2 := NewAsset("same content")
	a3 := NewAsset("different content")

	b, err := NewBundle("main", CSS, []*Asset{a1, a2, a3})
	require.NoError(t, err)
	require.NoError(t, c.RegisterBundle(b, false))

	h1, err := a1.Hash(ctx, c)
	require.NoError(t, err)
	h2, err := a2.Hash(ctx, c)
	require.NoError(t, err)
	h3, err := a3.Hash(ctx, c)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "identical content must produce identical hashes")
	assert.NotEqual(t, h1, h3)

	url, err := a1.URL(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "/_webpress/bundle/main/asset/0_v"+h1+".css", url)

	again, err := a1.URL(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, url, again, "URL derivation must be idempotent")
}

func TestAsset_URLRequiresBundle(t *testing.T) {
	c := newTestCompressor(t, false)

	orphan := NewAsset("content")
	_, err := orphan.URL(context.Background(), c)
	require.Error(t, err)
}

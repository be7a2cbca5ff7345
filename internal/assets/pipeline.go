package assets

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/webpress/webpress/internal/registry"
)

// Env supplies the ambient collaborators content resolution needs. Assets and
// bundles receive it on every resolution call instead of reaching for global
// state; the Compressor is the production implementation.
type Env interface {
	// Processor looks up a registered transform by name. Unknown names are a
	// NotFound error.
	Processor(name string) (registry.ProcessorFunc, error)
	// Debug reports whether the embedding application runs in debug mode,
	// which bypasses all memoization.
	Debug() bool
	// StaticRoot is the directory file-backed assets resolve against.
	StaticRoot() string
	// URLPrefix is the mount point of the HTTP exposure layer.
	URLPrefix() string
}

// applyChain applies the named processors to content in declared order. The
// first lookup or invocation failure aborts the chain; no partial content is
// produced.
func applyChain(ctx context.Context, env Env, names []string, content string) (string, error) {
	for _, name := range names {
		processor, err := env.Processor(name)
		if err != nil {
			return "", err
		}
		content, err = processor(ctx, content)
		if err != nil {
			return "", fmt.Errorf("applying processor %q: %w", name, err)
		}
	}
	return content, nil
}

// applyChainEach applies the named processors to every content value
// independently, preserving order of both the chain and the values.
func applyChainEach(ctx context.Context, env Env, names []string, contents []string) ([]string, error) {
	results := make([]string, len(contents))
	for i, content := range contents {
		processed, err := applyChain(ctx, env, names, content)
		if err != nil {
			return nil, err
		}
		results[i] = processed
	}
	return results, nil
}

// memoKey discriminates the memoized variants of a resolution method.
type memoKey struct {
	applyProcessors bool
}

// memoCell is a compute-once cache cell keyed by memoKey. Concurrent first
// accesses serialize on the mutex so exactly one computation runs and every
// caller observes the same value. In debug mode the cell is bypassed
// entirely and every access recomputes.
type memoCell struct {
	mutex  sync.Mutex
	values map[memoKey]string
}

func (c *memoCell) resolve(debug bool, key memoKey, compute func() (string, error)) (string, error) {
	if debug {
		return compute()
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if value, ok := c.values[key]; ok {
		return value, nil
	}
	value, err := compute()
	if err != nil {
		return "", err
	}
	if c.values == nil {
		c.values = make(map[memoKey]string, 2)
	}
	c.values[key] = value
	return value, nil
}

// invalidate drops every memoized value so the next access recomputes.
func (c *memoCell) invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.values = nil
}

// contentHash fingerprints processed content. MD5 is ample for cache
// busting: the hash only needs to change when the content does.
func contentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/webpress/webpress/internal/errors"
)

// Asset is the atomic content unit: either an inline literal or the lazily
// loaded content of a file under the static root, with its own processor
// chain. File-backed assets carry a name used for cache keys and routing;
// inline assets are nameless.
type Asset struct {
	name       string
	literal    string
	hasLiteral bool
	file       string
	processors []string

	// Owning bundle, set at bundle construction. Used only for URL
	// derivation, never for content resolution.
	bundle *Bundle
	index  int

	content memoCell
	hash    memoCell
}

// NewAsset creates a nameless asset from inline content.
func NewAsset(content string, processorNames ...string) *Asset {
	return &Asset{
		literal:    content,
		hasLiteral: true,
		processors: processorNames,
	}
}

// NewFileAsset creates an asset whose raw content is loaded from a file
// relative to the static root. The path must be relative; an absolute path
// or one escaping the root is a construction-time error.
func NewFileAsset(name, file string, processorNames ...string) (*Asset, error) {
	if name == "" {
		return nil, fmt.Errorf("file asset requires a name: %q", file)
	}
	if filepath.IsAbs(file) {
		return nil, fmt.Errorf("file asset path must be relative to the static root: %q", file)
	}
	if strings.Contains(filepath.ToSlash(filepath.Clean(file)), "../") || filepath.Clean(file) == ".." {
		return nil, fmt.Errorf("file asset path escapes the static root: %q", file)
	}
	return &Asset{
		name:       name,
		file:       file,
		processors: processorNames,
	}, nil
}

// Name returns the asset name, empty for inline assets.
func (a *Asset) Name() string {
	return a.name
}

// Processors returns the asset's processor chain in declared order.
func (a *Asset) Processors() []string {
	return a.processors
}

// RawContent resolves the asset's unprocessed content: the stored literal,
// or the file read from the static root. In debug mode the file is re-read
// on every access so edits are visible without a restart.
func (a *Asset) RawContent(_ context.Context, env Env) (string, error) {
	if a.hasLiteral {
		return a.literal, nil
	}
	data, err := os.ReadFile(filepath.Join(env.StaticRoot(), a.file))
	if err != nil {
		return "", fmt.Errorf("loading asset %q: %w", a.name, err)
	}
	return string(data), nil
}

// Content resolves the asset's processed content: raw content with the
// processor chain applied left to right. Memoized per process outside debug
// mode.
func (a *Asset) Content(ctx context.Context, env Env) (string, error) {
	return a.resolve(ctx, env, true)
}

func (a *Asset) resolve(ctx context.Context, env Env, applyProcessors bool) (string, error) {
	return a.content.resolve(env.Debug(), memoKey{applyProcessors: applyProcessors}, func() (string, error) {
		content, err := a.RawContent(ctx, env)
		if err != nil {
			return "", err
		}
		if !applyProcessors {
			return content, nil
		}
		return applyChain(ctx, env, a.processors, content)
	})
}

// Hash returns the hex digest of the processed content, memoized under the
// same policy as the content itself.
func (a *Asset) Hash(ctx context.Context, env Env) (string, error) {
	return a.hash.resolve(env.Debug(), memoKey{applyProcessors: true}, func() (string, error) {
		content, err := a.Content(ctx, env)
		if err != nil {
			return "", err
		}
		return contentHash(content), nil
	})
}

// URL derives the fingerprinted path the asset is served under. It requires
// an owning bundle, whose name and extension anchor the path; the content
// hash makes the URL change exactly when the content does.
func (a *Asset) URL(ctx context.Context, env Env) (string, error) {
	if a.bundle == nil {
		return "", errors.NotFound("bundle", "asset "+a.name+" has no owning bundle")
	}
	hash, err := a.Hash(ctx, env)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/bundle/%s/asset/%d_v%s.%s",
		env.URLPrefix(), a.bundle.name, a.index, hash, a.bundle.format.Extension), nil
}

// invalidate drops the asset's memoized content and hash.
func (a *Asset) invalidate() {
	a.content.invalidate()
	a.hash.invalidate()
}

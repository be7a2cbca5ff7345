package assets

import (
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/webpress/webpress/internal/errors"
)

// Bundle is a named, ordered collection of assets with a processor chain
// applied to their concatenation. Its raw content is the newline join of the
// children's processed contents, in declaration order.
type Bundle struct {
	name       string
	assets     []*Asset
	processors []string
	format     Format

	inlineTmpl *template.Template
	linkedTmpl *template.Template

	content memoCell
	hash    memoCell
}

// NewBundle creates a bundle from the given assets, wiring each asset's
// back-reference for URL derivation. Template validation happens here so a
// malformed format fails at setup time, not at first render.
func NewBundle(name string, format Format, bundleAssets []*Asset, processorNames ...string) (*Bundle, error) {
	if name == "" {
		return nil, fmt.Errorf("bundle requires a name")
	}
	inline, linked, err := format.compile()
	if err != nil {
		return nil, fmt.Errorf("bundle %q: %w", name, err)
	}

	b := &Bundle{
		name:       name,
		assets:     bundleAssets,
		processors: processorNames,
		format:     format,
		inlineTmpl: inline,
		linkedTmpl: linked,
	}
	for i, asset := range bundleAssets {
		asset.bundle = b
		asset.index = i
	}
	return b, nil
}

// Name returns the bundle's registry key.
func (b *Bundle) Name() string {
	return b.name
}

// MIMEType returns the MIME type bundle content is served with.
func (b *Bundle) MIMEType() string {
	return b.format.MIMEType
}

// Extension returns the file extension of the served resource.
func (b *Bundle) Extension() string {
	return b.format.Extension
}

// Assets returns the bundle's assets in declaration order.
func (b *Bundle) Assets() []*Asset {
	return b.assets
}

// Processors returns the bundle-level processor chain in application order.
func (b *Bundle) Processors() []string {
	return b.processors
}

// Asset returns the child at the given position. An out-of-range index is a
// NotFound error, indistinguishable from an unknown name.
func (b *Bundle) Asset(index int) (*Asset, error) {
	if index < 0 || index >= len(b.assets) {
		return nil, errors.NotFound("asset", strconv.Itoa(index))
	}
	return b.assets[index], nil
}

// Content resolves the bundle's processed content: every child's processed
// content joined with a single newline, then the bundle's own chain applied
// to the concatenation. Memoized per process outside debug mode.
func (b *Bundle) Content(ctx context.Context, env Env) (string, error) {
	return b.resolve(ctx, env, true)
}

// RawContent resolves the newline-joined child contents without the
// bundle-level chain. Child chains still apply; a bundle never sees its
// children's unprocessed text.
func (b *Bundle) RawContent(ctx context.Context, env Env) (string, error) {
	return b.resolve(ctx, env, false)
}

func (b *Bundle) resolve(ctx context.Context, env Env, applyProcessors bool) (string, error) {
	return b.content.resolve(env.Debug(), memoKey{applyProcessors: applyProcessors}, func() (string, error) {
		parts := make([]string, len(b.assets))
		for i, asset := range b.assets {
			content, err := asset.Content(ctx, env)
			if err != nil {
				return "", fmt.Errorf("bundle %q: %w", b.name, err)
			}
			parts[i] = content
		}
		// Exactly one newline between successive assets, empty ones
		// included, no trailing separator. Persisted output round-trips
		// byte-exactly on this contract.
		content := strings.Join(parts, "\n")

		if !applyProcessors {
			return content, nil
		}
		return applyChain(ctx, env, b.processors, content)
	})
}

// Contents resolves each child individually, with the bundle's own chain
// applied per child instead of to the concatenation. This backs the
// per-child rendering variants.
func (b *Bundle) Contents(ctx context.Context, env Env) ([]string, error) {
	parts := make([]string, len(b.assets))
	for i, asset := range b.assets {
		content, err := asset.Content(ctx, env)
		if err != nil {
			return nil, fmt.Errorf("bundle %q: %w", b.name, err)
		}
		parts[i] = content
	}
	return applyChainEach(ctx, env, b.processors, parts)
}

// Hash returns the hex digest of the bundle's processed content, memoized
// under the same policy.
func (b *Bundle) Hash(ctx context.Context, env Env) (string, error) {
	return b.hash.resolve(env.Debug(), memoKey{applyProcessors: true}, func() (string, error) {
		content, err := b.Content(ctx, env)
		if err != nil {
			return "", err
		}
		return contentHash(content), nil
	})
}

// URL derives the fingerprinted path the bundle is served under.
func (b *Bundle) URL(ctx context.Context, env Env) (string, error) {
	hash, err := b.Hash(ctx, env)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/bundle/%s_v%s.%s",
		env.URLPrefix(), b.name, hash, b.format.Extension), nil
}

// Invalidate drops all memoized content and hashes for the bundle and its
// assets. The next access recomputes from scratch.
func (b *Bundle) Invalidate() {
	b.content.invalidate()
	b.hash.invalidate()
	for _, asset := range b.assets {
		asset.invalidate()
	}
}

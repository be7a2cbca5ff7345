package assets

import (
	"context"
	"html/template"
	"strconv"
	"time"

	"github.com/webpress/webpress/internal/errors"
	"github.com/webpress/webpress/internal/logging"
	"github.com/webpress/webpress/internal/processors"
	"github.com/webpress/webpress/internal/registry"
)

// Compressor coordinates the bundle and processor registries for one running
// application. It implements Env, so it is also what assets and bundles
// resolve against. One instance lives for the process lifetime.
type Compressor struct {
	bundles    *registry.Registry[*Bundle]
	processors *registry.Registry[registry.ProcessorFunc]

	staticRoot string
	urlPrefix  string
	debug      bool
	logger     logging.Logger
}

// Options configures a Compressor.
type Options struct {
	// StaticRoot is the directory file-backed assets resolve against.
	StaticRoot string
	// URLPrefix is the mount point of the HTTP exposure layer.
	URLPrefix string
	// Debug disables memoization and minification.
	Debug bool
	// LessCommand and LessTimeout configure the builtin LESS processor.
	LessCommand string
	LessTimeout time.Duration
	Logger      logging.Logger
}

// New creates a Compressor with the built-in processors registered.
func New(opts Options) (*Compressor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	c := &Compressor{
		bundles:    registry.New[*Bundle]("bundle"),
		processors: registry.New[registry.ProcessorFunc]("processor"),
		staticRoot: opts.StaticRoot,
		urlPrefix:  opts.URLPrefix,
		debug:      opts.Debug,
		logger:     logger.WithComponent("compressor"),
	}

	err := processors.RegisterDefaults(c.processors, processors.Options{
		Debug:       opts.Debug,
		LessCommand: opts.LessCommand,
		LessTimeout: opts.LessTimeout,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Processor implements Env.
func (c *Compressor) Processor(name string) (registry.ProcessorFunc, error) {
	return c.processors.Get(name)
}

// Debug implements Env.
func (c *Compressor) Debug() bool {
	return c.debug
}

// StaticRoot implements Env.
func (c *Compressor) StaticRoot() string {
	return c.staticRoot
}

// URLPrefix implements Env.
func (c *Compressor) URLPrefix() string {
	return c.urlPrefix
}

// RegisterProcessor installs a transform under name. Registering an existing
// name without replace fails with a DuplicateName error.
func (c *Compressor) RegisterProcessor(name string, fn registry.ProcessorFunc, replace bool) error {
	return c.processors.Register(name, fn, replace)
}

// ProcessorNames returns the registered processor names.
func (c *Compressor) ProcessorNames() []string {
	return c.processors.Names()
}

// RegisterBundle installs a bundle under its name. Registering an existing
// name without replace fails with a DuplicateName error.
func (c *Compressor) RegisterBundle(b *Bundle, replace bool) error {
	return c.bundles.Register(b.Name(), b, replace)
}

// Bundle resolves a bundle by name.
func (c *Compressor) Bundle(name string) (*Bundle, error) {
	return c.bundles.Get(name)
}

// BundleNames returns the registered bundle names.
func (c *Compressor) BundleNames() []string {
	return c.bundles.Names()
}

// Asset resolves a child asset by bundle name and positional index.
func (c *Compressor) Asset(bundleName string, index int) (*Asset, error) {
	b, err := c.Bundle(bundleName)
	if err != nil {
		return nil, err
	}
	return b.Asset(index)
}

// ResolveBundle resolves a bundle by name and validates the supplied hash
// and extension against the bundle's actual values. Any mismatch is a
// NotFound error, deliberately indistinguishable from an unknown name, so
// stale or guessed URLs never serve content.
func (c *Compressor) ResolveBundle(ctx context.Context, name, hash, ext string) (*Bundle, error) {
	b, err := c.Bundle(name)
	if err != nil {
		return nil, err
	}
	if ext != b.Extension() {
		return nil, errors.NotFound("bundle", name)
	}
	actual, err := b.Hash(ctx, c)
	if err != nil {
		return nil, err
	}
	if hash != actual {
		return nil, errors.NotFound("bundle", name)
	}
	return b, nil
}

// ResolveAsset is ResolveBundle for a child asset addressed by position.
func (c *Compressor) ResolveAsset(ctx context.Context, bundleName string, index int, hash, ext string) (*Asset, error) {
	b, err := c.Bundle(bundleName)
	if err != nil {
		return nil, err
	}
	asset, err := b.Asset(index)
	if err != nil {
		return nil, err
	}
	if ext != b.Extension() {
		return nil, errors.NotFound("asset", strconv.Itoa(index))
	}
	actual, err := asset.Hash(ctx, c)
	if err != nil {
		return nil, err
	}
	if hash != actual {
		return nil, errors.NotFound("asset", strconv.Itoa(index))
	}
	return asset, nil
}

// Tag is the template-integration entry point: it renders the named bundle
// as a pre-escaped HTML fragment, inline or linked. Outside debug mode the
// bundle renders as one concatenated resource; in debug mode it renders one
// fragment per child asset so dev tools map back to individual sources.
func (c *Compressor) Tag(ctx context.Context, name string, inline bool) (template.HTML, error) {
	b, err := c.Bundle(name)
	if err != nil {
		return "", err
	}
	concatenate := !c.debug
	if inline {
		return b.RenderInline(ctx, c, concatenate)
	}
	return b.RenderLinked(ctx, c, concatenate)
}

// Invalidate drops every bundle's memoized content and hashes. Used when a
// watcher observes static files changing under a long-running process.
func (c *Compressor) Invalidate() {
	count := 0
	c.bundles.Range(func(_ string, b *Bundle) bool {
		b.Invalidate()
		count++
		return true
	})
	c.logger.Debug(context.Background(), "invalidated memoized bundle content", "bundles", count)
}

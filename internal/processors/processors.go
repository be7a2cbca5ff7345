// Package processors provides the built-in text transforms registered with
// every compressor: CSS and JavaScript minification backed by
// tdewolff/minify, and LESS compilation delegated to an external lessc
// process.
//
// Built-ins are independently optional. A missing external tool surfaces as a
// ProcessorUnavailable error on first invocation, never at registration, so
// an uninstalled compiler only matters if a bundle actually asks for it.
package processors

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"github.com/webpress/webpress/internal/errors"
	"github.com/webpress/webpress/internal/registry"
)

// Canonical names of the built-in processors.
const (
	NameCSSMin = "cssmin"
	NameJSMin  = "jsmin"
	NameLess   = "lessc"
)

// DefaultLessTimeout bounds a lessc invocation when no timeout is configured.
const DefaultLessTimeout = 30 * time.Second

// Options configures the built-in processors.
type Options struct {
	// Debug turns minifying processors into the identity transform so
	// generated output stays readable during development. Non-minifying
	// transforms (LESS compilation) still run.
	Debug bool
	// LessCommand is the external LESS compiler binary, "lessc" by default.
	LessCommand string
	// LessTimeout bounds a single compiler invocation.
	LessTimeout time.Duration
}

// RegisterDefaults installs the built-in processors under their canonical
// names.
func RegisterDefaults(r *registry.Registry[registry.ProcessorFunc], opts Options) error {
	defaults := map[string]registry.ProcessorFunc{
		NameCSSMin: CSSMin(opts),
		NameJSMin:  JSMin(opts),
		NameLess:   Less(opts),
	}
	for name, fn := range defaults {
		if err := r.Register(name, fn, false); err != nil {
			return err
		}
	}
	return nil
}

// CSSMin returns the CSS minifying processor.
func CSSMin(opts Options) registry.ProcessorFunc {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)

	return func(_ context.Context, content string) (string, error) {
		if opts.Debug {
			return content, nil
		}
		out, err := m.String("text/css", content)
		if err != nil {
			return "", errors.ProcessorExecution(NameCSSMin, "", err)
		}
		return out, nil
	}
}

// JSMin returns the JavaScript minifying processor.
func JSMin(opts Options) registry.ProcessorFunc {
	m := minify.New()
	m.AddFunc("text/javascript", js.Minify)

	return func(_ context.Context, content string) (string, error) {
		if opts.Debug {
			return content, nil
		}
		out, err := m.String("text/javascript", content)
		if err != nil {
			return "", errors.ProcessorExecution(NameJSMin, "", err)
		}
		return out, nil
	}
}

// Less returns the LESS-to-CSS compiling processor. It pipes the content
// through the configured external compiler reading from stdin. Compilation
// runs in debug mode too: LESS source is not servable CSS, so skipping the
// transform would break pages instead of aiding development.
func Less(opts Options) registry.ProcessorFunc {
	command := opts.LessCommand
	if command == "" {
		command = "lessc"
	}
	timeout := opts.LessTimeout
	if timeout <= 0 {
		timeout = DefaultLessTimeout
	}

	return func(ctx context.Context, content string) (string, error) {
		path, err := exec.LookPath(command)
		if err != nil {
			return "", errors.ProcessorUnavailable(NameLess,
				command+" not found in PATH, install it to use the "+NameLess+" processor")
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, path, "-")
		cmd.Stdin = strings.NewReader(content)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return "", errors.ProcessorExecution(NameLess, "compilation timed out", ctx.Err())
			}
			return "", errors.ProcessorExecution(NameLess, strings.TrimSpace(stderr.String()), err)
		}
		return stdout.String(), nil
	}
}

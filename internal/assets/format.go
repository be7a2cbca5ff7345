// Package assets implements the content-resolution core of webpress: assets,
// bundles, the processor-chain pipeline, per-process memoization, content
// hashing, and fingerprinted URL derivation.
package assets

import (
	"fmt"
	"html/template"
	"strings"
)

// Format describes how a bundle renders and serves its content: the MIME
// type and file extension of the served resource, plus the templates used
// for inline and linked rendering. A single Bundle type parameterized by a
// Format replaces per-flavor subclassing.
type Format struct {
	MIMEType  string
	Extension string
	// InlineTemplate wraps content for embedding into a page. It must
	// reference {{.Content}} and may reference {{.MIMEType}}.
	InlineTemplate string
	// LinkedTemplate emits a reference to the served resource. It must
	// reference {{.URL}} and may reference {{.MIMEType}}.
	LinkedTemplate string
}

// Named presets for the common bundle flavors.
var (
	CSS = Format{
		MIMEType:       "text/css",
		Extension:      "css",
		InlineTemplate: `<style type="{{.MIMEType}}">{{.Content}}</style>`,
		LinkedTemplate: `<link type="{{.MIMEType}}" rel="stylesheet" href="{{.URL}}">`,
	}
	JS = Format{
		MIMEType:       "text/javascript",
		Extension:      "js",
		InlineTemplate: `<script type="{{.MIMEType}}">{{.Content}}</script>`,
		LinkedTemplate: `<script type="{{.MIMEType}}" src="{{.URL}}"></script>`,
	}
	Plain = Format{
		MIMEType:       "text/plain",
		Extension:      "txt",
		InlineTemplate: `{{.Content}}`,
		LinkedTemplate: `<link rel="external" type="{{.MIMEType}}" href="{{.URL}}">`,
	}
)

// FormatByName resolves a preset by its manifest name.
func FormatByName(name string) (Format, error) {
	switch name {
	case "css":
		return CSS, nil
	case "js", "javascript":
		return JS, nil
	case "plain", "text":
		return Plain, nil
	default:
		return Format{}, fmt.Errorf("unknown bundle format %q (expected css, js, or plain)", name)
	}
}

// compile parses both rendering templates, first checking that each declares
// the placeholder it exists to substitute.
func (f Format) compile() (inline, linked *template.Template, err error) {
	if !strings.Contains(f.InlineTemplate, "{{.Content}}") {
		return nil, nil, fmt.Errorf("inline template must contain {{.Content}}: %q", f.InlineTemplate)
	}
	if !strings.Contains(f.LinkedTemplate, "{{.URL}}") {
		return nil, nil, fmt.Errorf("linked template must contain {{.URL}}: %q", f.LinkedTemplate)
	}

	inline, err = template.New("inline").Parse(f.InlineTemplate)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing inline template: %w", err)
	}
	linked, err = template.New("linked").Parse(f.LinkedTemplate)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing linked template: %w", err)
	}
	return inline, linked, nil
}

// rawContent marks processed output as trusted for its destination context,
// so html/template embeds it verbatim inside <style> and <script> elements
// instead of escaping it.
func (f Format) rawContent(content string) interface{} {
	switch f.MIMEType {
	case "text/css":
		return template.CSS(content)
	case "text/javascript", "application/javascript":
		return template.JS(content)
	default:
		return content
	}
}

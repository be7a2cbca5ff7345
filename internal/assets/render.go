package assets

import (
	"context"
	"fmt"
	"html/template"
	"strings"
)

// inlineData and linkedData are the substitution payloads for the rendering
// templates.
type inlineData struct {
	Content  interface{}
	MIMEType string
}

type linkedData struct {
	URL      string
	MIMEType string
}

// RenderInline wraps the bundle's content in its inline template. With
// concatenate, the whole bundle renders as one fragment; without, each child
// renders individually (bundle chain applied per child) and the fragments
// join with newlines.
func (b *Bundle) RenderInline(ctx context.Context, env Env, concatenate bool) (template.HTML, error) {
	if concatenate {
		content, err := b.Content(ctx, env)
		if err != nil {
			return "", err
		}
		return b.execInline(content)
	}

	contents, err := b.Contents(ctx, env)
	if err != nil {
		return "", err
	}
	fragments := make([]string, len(contents))
	for i, content := range contents {
		fragment, err := b.execInline(content)
		if err != nil {
			return "", err
		}
		fragments[i] = string(fragment)
	}
	return template.HTML(strings.Join(fragments, "\n")), nil
}

// RenderLinked wraps a fingerprinted URL in the bundle's linked template.
// With concatenate, one link to the whole bundle; without, one link per
// child asset, which maps browser dev tools back to individual sources.
func (b *Bundle) RenderLinked(ctx context.Context, env Env, concatenate bool) (template.HTML, error) {
	if concatenate {
		url, err := b.URL(ctx, env)
		if err != nil {
			return "", err
		}
		return b.execLinked(url)
	}

	fragments := make([]string, len(b.assets))
	for i, asset := range b.assets {
		url, err := asset.URL(ctx, env)
		if err != nil {
			return "", err
		}
		fragment, err := b.execLinked(url)
		if err != nil {
			return "", err
		}
		fragments[i] = string(fragment)
	}
	return template.HTML(strings.Join(fragments, "\n")), nil
}

func (b *Bundle) execInline(content string) (template.HTML, error) {
	var sb strings.Builder
	data := inlineData{
		Content:  b.format.rawContent(content),
		MIMEType: b.format.MIMEType,
	}
	if err := b.inlineTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering bundle %q inline: %w", b.name, err)
	}
	return template.HTML(sb.String()), nil
}

func (b *Bundle) execLinked(url string) (template.HTML, error) {
	var sb strings.Builder
	data := linkedData{URL: url, MIMEType: b.format.MIMEType}
	if err := b.linkedTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering bundle %q link: %w", b.name, err)
	}
	return template.HTML(sb.String()), nil
}

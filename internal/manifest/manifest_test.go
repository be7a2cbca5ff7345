package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpress/webpress/internal/assets"
	"github.com/webpress/webpress/internal/errors"
)

const sampleManifest = `
bundles:
  - name: site.css
    format: css
    processors: [cssmin]
    assets:
      - name: base
        file: css/base.css
      - content: "p { color: blue; }"
  - name: app.js
    format: js
    assets:
      - content: "console.log('hi');"
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)
	require.Len(t, f.Bundles, 2)

	first := f.Bundles[0]
	assert.Equal(t, "site.css", first.Name)
	assert.Equal(t, "css", first.Format)
	assert.Equal(t, []string{"cssmin"}, first.Processors)
	require.Len(t, first.Assets, 2)
	assert.Equal(t, "base", first.Assets[0].Name)
	assert.Equal(t, "css/base.css", first.Assets[0].File)
	assert.Equal(t, "p { color: blue; }", first.Assets[1].Content)
}

func TestParse_Validation(t *testing.T) {
	cases := map[string]string{
		"missing bundle name": `
bundles:
  - format: css
`,
		"missing format": `
bundles:
  - name: main
`,
		"asset with both sources": `
bundles:
  - name: main
    format: css
    assets:
      - name: a
        file: a.css
        content: "body {}"
`,
		"asset with neither source": `
bundles:
  - name: main
    format: css
    assets:
      - name: a
`,
		"nameless file asset": `
bundles:
  - name: main
    format: css
    assets:
      - file: a.css
`,
		"not yaml": "{{{{",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundles.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Bundles, 2)

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "css", "base.css"),
		[]byte("body { margin: 0; }"), 0o644))

	c, err := assets.New(assets.Options{StaticRoot: root, URLPrefix: "/_webpress"})
	require.NoError(t, err)

	f, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)
	require.NoError(t, f.Register(c))

	bundle, err := c.Bundle("site.css")
	require.NoError(t, err)
	assert.Equal(t, "text/css", bundle.MIMEType())

	content, err := bundle.Content(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "body{margin:0}p{color:blue}", content)

	// Re-registering without replace collides.
	err = f.Register(c)
	require.Error(t, err)
	assert.True(t, errors.IsDuplicateName(err))
}

func TestRegister_UnknownFormat(t *testing.T) {
	c, err := assets.New(assets.Options{StaticRoot: t.TempDir(), URLPrefix: "/_webpress"})
	require.NoError(t, err)

	f, err := Parse([]byte(`
bundles:
  - name: main
    format: coffeescript
`))
	require.NoError(t, err)

	err = f.Register(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coffeescript")
}

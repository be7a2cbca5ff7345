// Package manifest loads bundle declarations from a YAML file and registers
// them with a compressor. The manifest is the setup-time surface of webpress:
// it names each bundle, picks a format preset, and lists the assets with
// their processor chains.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/webpress/webpress/internal/assets"
)

// File is the root of a bundle manifest.
type File struct {
	Bundles []BundleSpec `yaml:"bundles"`
}

// BundleSpec declares one bundle.
type BundleSpec struct {
	Name       string      `yaml:"name"`
	Format     string      `yaml:"format"`
	Processors []string    `yaml:"processors"`
	Assets     []AssetSpec `yaml:"assets"`
	// Replace allows the bundle to overwrite a previously registered one.
	Replace bool `yaml:"replace"`
}

// AssetSpec declares one asset: either inline content or a file path
// relative to the static root, never both.
type AssetSpec struct {
	Name       string   `yaml:"name"`
	File       string   `yaml:"file"`
	Content    string   `yaml:"content"`
	Processors []string `yaml:"processors"`
}

// Load parses a manifest file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse parses manifest bytes and validates the declarations.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	for i, bundle := range f.Bundles {
		if bundle.Name == "" {
			return nil, fmt.Errorf("bundle %d: missing name", i)
		}
		if bundle.Format == "" {
			return nil, fmt.Errorf("bundle %q: missing format", bundle.Name)
		}
		for j, asset := range bundle.Assets {
			hasFile := asset.File != ""
			hasContent := asset.Content != ""
			if hasFile == hasContent {
				return nil, fmt.Errorf("bundle %q asset %d: exactly one of file or content is required",
					bundle.Name, j)
			}
			if hasFile && asset.Name == "" {
				return nil, fmt.Errorf("bundle %q asset %d: file-backed assets require a name",
					bundle.Name, j)
			}
		}
	}
	return &f, nil
}

// Register builds every declared bundle and registers it with the
// compressor. Construction errors carry the bundle name.
func (f *File) Register(c *assets.Compressor) error {
	for _, spec := range f.Bundles {
		bundle, err := buildBundle(spec)
		if err != nil {
			return err
		}
		if err := c.RegisterBundle(bundle, spec.Replace); err != nil {
			return err
		}
	}
	return nil
}

func buildBundle(spec BundleSpec) (*assets.Bundle, error) {
	format, err := assets.FormatByName(spec.Format)
	if err != nil {
		return nil, fmt.Errorf("bundle %q: %w", spec.Name, err)
	}

	bundleAssets := make([]*assets.Asset, 0, len(spec.Assets))
	for _, assetSpec := range spec.Assets {
		if assetSpec.File != "" {
			asset, err := assets.NewFileAsset(assetSpec.Name, assetSpec.File, assetSpec.Processors...)
			if err != nil {
				return nil, fmt.Errorf("bundle %q: %w", spec.Name, err)
			}
			bundleAssets = append(bundleAssets, asset)
			continue
		}
		bundleAssets = append(bundleAssets, assets.NewAsset(assetSpec.Content, assetSpec.Processors...))
	}

	return assets.NewBundle(spec.Name, format, bundleAssets, spec.Processors...)
}

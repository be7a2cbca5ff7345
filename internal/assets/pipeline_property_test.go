//go:build property

package assets

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestResolutionProperties validates algebraic properties of the
// content-resolution pipeline over arbitrary content.
func TestResolutionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234) // For reproducible results
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	newEnv := func() *Compressor {
		c, err := New(Options{StaticRoot: t.TempDir(), URLPrefix: "/_webpress"})
		if err != nil {
			t.Fatal(err)
		}
		if err := c.RegisterProcessor("upper", func(_ context.Context, s string) (string, error) {
			return strings.ToUpper(s), nil
		}, false); err != nil {
			t.Fatal(err)
		}
		if err := c.RegisterProcessor("wrap", func(_ context.Context, s string) (string, error) {
			return "[" + s + "]", nil
		}, false); err != nil {
			t.Fatal(err)
		}
		return c
	}

	// Property: a two-step chain equals composing the steps left to right.
	properties.Property("chain [p1 p2] equals p2(p1(c))", prop.ForAll(
		func(content string) bool {
			c := newEnv()
			asset := NewAsset(content, "upper", "wrap")

			got, err := asset.Content(context.Background(), c)
			if err != nil {
				return false
			}
			return got == "["+strings.ToUpper(content)+"]"
		},
		gen.AnyString(),
	))

	// Property: resolving twice yields the identical string and hash.
	properties.Property("resolution is idempotent", prop.ForAll(
		func(content string) bool {
			c := newEnv()
			asset := NewAsset(content, "wrap")
			ctx := context.Background()

			first, err1 := asset.Content(ctx, c)
			second, err2 := asset.Content(ctx, c)
			h1, err3 := asset.Hash(ctx, c)
			h2, err4 := asset.Hash(ctx, c)
			if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
				return false
			}
			return first == second && h1 == h2
		},
		gen.AnyString(),
	))

	// Property: hashes agree exactly when processed contents agree.
	properties.Property("hash determinism", prop.ForAll(
		func(a, b string) bool {
			c := newEnv()
			ctx := context.Background()

			one := NewAsset(a, "upper")
			two := NewAsset(b, "upper")

			h1, err1 := one.Hash(ctx, c)
			h2, err2 := two.Hash(ctx, c)
			if err1 != nil || err2 != nil {
				return false
			}
			if strings.ToUpper(a) == strings.ToUpper(b) {
				return h1 == h2
			}
			return h1 != h2
		},
		gen.AnyString(), gen.AnyString(),
	))

	properties.TestingRun(t)
}

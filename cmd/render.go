package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renderInline bool

var renderCmd = &cobra.Command{
	Use:   "render <bundle>",
	Short: "Print the HTML fragment for a bundle",
	Long: `Render resolves a bundle and prints the HTML fragment a template
would embed: a link/script tag referencing the fingerprinted URL, or
with --inline the full processed content wrapped in the bundle's
inline template.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, compressor, err := setup()
		if err != nil {
			return err
		}

		fragment, err := compressor.Tag(cmd.Context(), args[0], renderInline)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), fragment)
		return err
	},
}

func init() {
	renderCmd.Flags().BoolVar(&renderInline, "inline", false, "embed the content instead of linking to it")
	rootCmd.AddCommand(renderCmd)
}

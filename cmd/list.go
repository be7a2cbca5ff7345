package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered bundles",
	Long: `List prints every bundle from the manifest along with its asset
count, processor chain, and fingerprinted URL. Resolving the URL runs
the full processor chain, so a broken processor surfaces here instead
of at serve time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, compressor, err := setup()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tASSETS\tPROCESSORS\tURL")
		for _, name := range compressor.BundleNames() {
			bundle, err := compressor.Bundle(name)
			if err != nil {
				return err
			}
			url, err := bundle.URL(ctx, compressor)
			if err != nil {
				return fmt.Errorf("resolving bundle %q: %w", name, err)
			}
			processors := strings.Join(bundle.Processors(), ",")
			if processors == "" {
				processors = "-"
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", name, len(bundle.Assets()), processors, url)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/shade/internal/filter"
)

func newRemoveCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "remove <page.html>",
		Short: "Strip shade's inversion from a previously applied page",
		Long: `Strip the inversion, counter-filters and tracking marks that "shade apply"
wrote into a page. Filters the page set itself are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readPage(args[0])
			if err != nil {
				return err
			}
			a.logger.Debug("removing inversion", "page", args[0])
			doc.Do(filter.New(doc, filter.Options{Logger: a.logger}).Remove)
			return writePage(doc, output, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

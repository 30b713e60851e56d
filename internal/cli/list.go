package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/shade/internal/membership"
	"github.com/jmylchreest/shade/internal/urllist"
)

type listOptions struct {
	deny    bool
	replace bool
}

func (o *listOptions) kind() urllist.Kind {
	if o.deny {
		return urllist.Deny
	}
	return urllist.Allow
}

func newListCmd(a *app) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage the allow and deny lists",
		Long: `Manage the URL prefix lists consulted when deciding whether to invert a page.

Commands act on the allow list unless --deny is given. A URL matches the
longest listed prefix; at equal length the deny list wins.`,
	}
	cmd.PersistentFlags().BoolVar(&opts.deny, "deny", false, "act on the deny list")

	// withStore opens the database around fn.
	withStore := func(fn func(cmd *cobra.Command, args []string, store urllist.Store) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return fn(cmd, args, store)
		}
	}

	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"show"},
		Short:   "Show the list",
		Args:    cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, _ []string, store urllist.Store) error {
			urls, err := store.List(cmd.Context(), opts.kind())
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s list is empty\n", opts.kind())
				return nil
			}
			table := NewTable([]string{"#", "URL"})
			for i, u := range urls {
				table.AddRow([]string{strconv.Itoa(i + 1), u})
			}
			_, err = io.WriteString(cmd.OutOrStdout(), table.Render())
			return err
		}),
	}

	add := &cobra.Command{
		Use:   "add <url>...",
		Short: "Add URL prefixes",
		Args:  cobra.MinimumNArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, store urllist.Store) error {
			for _, u := range args {
				if err := store.Add(cmd.Context(), opts.kind(), u); err != nil {
					return err
				}
				a.logger.Info("added", "list", opts.kind(), "url", u)
			}
			return nil
		}),
	}

	rm := &cobra.Command{
		Use:     "rm <url>...",
		Aliases: []string{"delete"},
		Short:   "Remove URL prefixes",
		Args:    cobra.MinimumNArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, store urllist.Store) error {
			for _, u := range args {
				if err := store.Delete(cmd.Context(), opts.kind(), u); err != nil {
					return err
				}
				a.logger.Info("removed", "list", opts.kind(), "url", u)
			}
			return nil
		}),
	}

	update := &cobra.Command{
		Use:   "update <old> <new>",
		Short: "Replace a URL prefix in place",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(cmd *cobra.Command, args []string, store urllist.Store) error {
			return store.Update(cmd.Context(), opts.kind(), args[0], args[1])
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the list",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, _ []string, store urllist.Store) error {
			return store.Clear(cmd.Context(), opts.kind())
		}),
	}

	toggle := &cobra.Command{
		Use:   "toggle <url>",
		Short: "Add the URL's origin if absent, otherwise remove it",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, store urllist.Store) error {
			origin, err := membership.Origin(args[0])
			if err != nil {
				return err
			}
			listed, err := urllist.Toggle(cmd.Context(), store, opts.kind(), origin)
			if err != nil {
				return err
			}
			verb := "removed from"
			if listed {
				verb = "added to"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s list\n", origin, verb, opts.kind())
			return nil
		}),
	}

	export := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the list as a JSON array",
		Args:  cobra.MaximumNArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, store urllist.Store) error {
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create export file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return urllist.Export(cmd.Context(), store, opts.kind(), w)
		}),
	}

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Read a JSON array of URL prefixes into the list",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, store urllist.Store) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer f.Close()
				r = f
			}
			n, err := urllist.Import(cmd.Context(), store, opts.kind(), r, opts.replace)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries into %s list\n", n, opts.kind())
			return nil
		}),
	}
	imp.Flags().BoolVar(&opts.replace, "replace", false, "replace the list instead of merging")

	usage := &cobra.Command{
		Use:   "usage",
		Short: "Show storage used by both lists",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, _ []string, store urllist.Store) error {
			u, err := store.Usage(cmd.Context())
			if err != nil {
				return err
			}
			table := NewTable([]string{"Resource", "Used", "Quota", "Percent"})
			table.AddRow([]string{"bytes", strconv.Itoa(u.Bytes), strconv.Itoa(u.QuotaBytes), fmt.Sprintf("%.1f%%", u.BytesPercent)})
			table.AddRow([]string{"items", strconv.Itoa(u.Items), strconv.Itoa(u.QuotaItems), fmt.Sprintf("%.1f%%", u.ItemsPercent)})
			_, err = io.WriteString(cmd.OutOrStdout(), table.Render())
			return err
		}),
	}

	cmd.AddCommand(ls, add, rm, update, clearCmd, toggle, export, imp, usage)
	return cmd
}

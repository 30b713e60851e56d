package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/shade/internal/dom"
	shadeimage "github.com/jmylchreest/shade/internal/image"
	"github.com/jmylchreest/shade/internal/membership"
	"github.com/jmylchreest/shade/internal/sampler"
	"github.com/jmylchreest/shade/internal/systheme"
)

type detectOptions struct {
	url        string
	screenshot string
	system     string
}

func newDetectCmd(a *app) *cobra.Command {
	opts := &detectOptions{}
	cmd := &cobra.Command{
		Use:   "detect <page.html>",
		Short: "Classify a page and the system as light or dark",
		Long: `Classify a page as light or dark and report the system preference.

The page theme comes from a screenshot when one is given, otherwise from the
computed backgrounds of the page's body and main containers.

Examples:
  # Classify a saved page from its styles
  shade detect page.html

  # Classify from a screenshot (file or URL)
  shade detect --screenshot shot.png page.html

  # Also report list membership for the page URL
  shade detect --url https://example.com/post page.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDetect(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "", "page URL used for list lookup")
	f.StringVar(&opts.screenshot, "screenshot", "", "screenshot of the visible page (file or URL)")
	f.StringVar(&opts.system, "system", "", "force the system theme (light, dark)")
	f.Int("thumbnail-edge", 96, "longest edge of the screenshot thumbnail")
	f.Int("sample-limit", 20, "maximum containers sampled")
	return cmd
}

func (a *app) runDetect(cmd *cobra.Command, path string, opts *detectOptions) error {
	ctx := cmd.Context()

	system, err := a.systemReader(opts.system)
	if err != nil {
		return err
	}
	pref := systheme.ProbeReader(system)

	doc, err := readPage(path)
	if err != nil {
		return err
	}
	doc.SetColorScheme(pref.Theme.String())

	target := sampler.Target{Document: doc, Foreground: true}
	if opts.screenshot != "" {
		target.Surface = shadeimage.NewScreenshot(opts.screenshot)
	}
	chain := sampler.Default(sampler.Options{
		ThumbnailEdge: a.cfg.ThumbnailEdge,
		SampleLimit:   a.cfg.SampleLimit,
		Logger:        a.logger,
	})
	page := chain.Sample(ctx, target)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "page:   %s (%s)\n", page.Theme, page.Source)
	fmt.Fprintf(out, "system: %s (%s)\n", pref.Theme, pref.Source)

	if opts.url == "" {
		return nil
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	v, err := membership.Lookup(ctx, store, opts.url)
	if err != nil {
		return err
	}
	switch {
	case v.InAllowList:
		fmt.Fprintf(out, "list:   allow (%s)\n", v.AllowPrefix)
	case v.InDenyList:
		fmt.Fprintf(out, "list:   deny (%s)\n", v.DenyPrefix)
	default:
		fmt.Fprintln(out, "list:   none")
	}
	return nil
}

// readPage parses an HTML file; "-" reads stdin.
func readPage(path string) (*dom.Document, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open page: %w", err)
		}
		defer f.Close()
		r = f
	}
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

// writePage renders doc to output, or to w when output is empty.
func writePage(doc *dom.Document, output string, w io.Writer) error {
	if output == "" {
		var err error
		doc.Do(func() { err = doc.Render(w) })
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	doc.Do(func() { err = doc.Render(f) })
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

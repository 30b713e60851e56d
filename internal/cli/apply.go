package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/shade/internal/engine"
	"github.com/jmylchreest/shade/internal/filter"
	shadeimage "github.com/jmylchreest/shade/internal/image"
	"github.com/jmylchreest/shade/internal/sampler"
	"github.com/jmylchreest/shade/internal/systheme"
	"github.com/jmylchreest/shade/internal/urllist"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

type applyOptions struct {
	url        string
	system     string
	screenshot string
	output     string
	watch      bool
}

func newApplyCmd(a *app) *cobra.Command {
	opts := &applyOptions{}
	cmd := &cobra.Command{
		Use:   "apply <page.html>",
		Short: "Evaluate a page and write it with the inversion applied or removed",
		Long: `Evaluate a page against the system preference and your lists, then write
the page with the inversion applied when the decision says so.

Examples:
  # Apply to a saved page and print the result
  shade apply --url https://example.com/post page.html

  # Force a dark desktop and write to a file
  shade apply --url https://example.com --system dark -o out.html page.html

  # Re-evaluate whenever the page changes on disk
  shade apply --url https://example.com --watch -o out.html page.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runApply(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "", "page URL used for list lookup (required)")
	f.StringVar(&opts.system, "system", "", "force the system theme (light, dark)")
	f.StringVar(&opts.screenshot, "screenshot", "", "screenshot of the visible page (file or URL)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.BoolVarP(&opts.watch, "watch", "w", false, "re-evaluate when the page file changes")
	f.String("policy", "a", "decision policy (a, b)")
	f.String("mode", "stylesheet", "inversion mode (stylesheet, root)")
	f.Duration("debounce", 500*time.Millisecond, "delay before re-correcting a mutated page")
	f.Duration("collaborator-timeout", 2*time.Second, "bound on each lookup during evaluation")
	f.Int("thumbnail-edge", 96, "longest edge of the screenshot thumbnail")
	f.Int("sample-limit", 20, "maximum containers sampled")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func (a *app) runApply(cmd *cobra.Command, path string, opts *applyOptions) error {
	if opts.watch && (path == "-" || opts.output == "") {
		return fmt.Errorf("--watch needs a page file and --output")
	}

	system, err := a.systemReader(opts.system)
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	run := func(ctx context.Context) error {
		return a.applyOnce(ctx, cmd, path, opts, system, store)
	}
	if !opts.watch {
		return run(ctx)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return a.watchPage(ctx, path, run)
}

func (a *app) applyOnce(ctx context.Context, cmd *cobra.Command, path string, opts *applyOptions, system systheme.Reader, store urllist.Store) error {
	doc, err := readPage(path)
	if err != nil {
		return err
	}
	doc.SetColorScheme(system.Read().String())

	host := engine.NewLocalHost(filter.Options{
		Mode:     a.cfg.ModeValue(),
		System:   system,
		Debounce: a.cfg.Debounce,
		Logger:   a.logger,
	})
	// The document is discarded once written; stop its watcher with it.
	defer host.Close()
	tab := engine.NewTab(opts.url, doc)
	if opts.screenshot != "" {
		host.SetSurface(tab.ID, shadeimage.NewScreenshot(opts.screenshot))
	}

	eng := engine.New(engine.Host{
		Capturer:  host,
		Injector:  host,
		Presenter: host,
		Lists:     store,
		System:    system,
	}, engine.Options{
		Policy:              a.cfg.PolicyValue(),
		CollaboratorTimeout: a.cfg.CollaboratorTimeout,
		Sampler: sampler.Default(sampler.Options{
			ThumbnailEdge: a.cfg.ThumbnailEdge,
			SampleLimit:   a.cfg.SampleLimit,
			Logger:        a.logger,
		}),
		Logger: a.logger,
	})

	out, err := eng.Evaluate(ctx, tab)
	if err != nil {
		return err
	}
	a.logger.Info("evaluated page",
		"url", opts.url,
		"page", out.Page.Theme,
		"source", out.Page.Source,
		"system", out.System,
		"inject", out.Verdict.ShouldInject,
		"active", out.Active,
		"tracked", len(host.Applicator(doc).Tracked()))

	return writePage(doc, opts.output, cmd.OutOrStdout())
}

// watchPage runs fn once, then again after each change to path until ctx
// is done.
func (a *app) watchPage(ctx context.Context, path string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	// Editors often replace the file, so watch its directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	a.logger.Info("watching for changes", "file", abs)

	reload := make(chan struct{}, 1)
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
			mu.Unlock()

		case <-reload:
			if err := fn(ctx); err != nil {
				a.logger.Error("re-evaluation failed", "error", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("file watcher error", "error", err)
		}
	}
}

package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/resload/internal/cli/output"
	"github.com/leapstack-labs/resload/internal/manifest"
	"github.com/leapstack-labs/resload/internal/session"
	"github.com/leapstack-labs/resload/pkg/dom"
)

// RenderOptions holds options for the render command.
type RenderOptions struct {
	HTML      string
	NoObjects bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <manifest>",
		Short: "Run a loader manifest against a headless document",
		Long: `Run the steps of a loader manifest against a headless HTML document and
report the identity, final state and callback count of every step.

The page and relative resources are read from the assets directory, unless the
manifest or --base-url gives a base URL to fetch them from.`,
		Example: `  # Report on a manifest
  resload render swap.yaml

  # Also write the resulting document
  resload render swap.yaml --html out.html

  # Prefetch scripts with auxiliary script elements
  resload render prefetch.yaml --no-objects -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.HTML, "html", "", "Write the rendered document to a file (- for stdout)")
	cmd.Flags().BoolVar(&opts.NoObjects, "no-objects", false, "Report no external object support to prefetch")

	return cmd
}

func runRender(cmd *cobra.Command, path string, opts *RenderOptions) error {
	cc := NewCommandContext(cmd)

	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	if m.BaseURL == "" {
		m.BaseURL = cc.Cfg.BaseURL
	}
	if m.BaseURL == "" {
		if err := cc.Cfg.ValidateAssetsDir(); err != nil {
			return err
		}
	}

	sopts := []session.Option{
		session.WithDir(cc.Cfg.AssetsDir),
		session.WithLogger(cc.Logger),
	}
	if opts.NoObjects {
		sopts = append(sopts, session.WithFeature(dom.FeatureExternalObject, false))
	}
	sess, err := session.New(m, sopts...)
	if err != nil {
		return fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cc.Cfg.Timeout)
	defer cancel()

	res, runErr := sess.Run(ctx)
	if res == nil {
		return runErr
	}

	if opts.HTML != "" {
		if err := writeHTML(cmd, opts.HTML, res.HTML); err != nil {
			return err
		}
	}
	if err := renderReport(cc.Renderer, res); err != nil {
		return err
	}
	return runErr
}

func writeHTML(cmd *cobra.Command, dest, html string) error {
	if dest == "-" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), html)
		return err
	}
	if err := os.WriteFile(dest, []byte(html+"\n"), 0o644); err != nil { //nolint:gosec // G306: rendered HTML is not secret
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

func renderReport(r *output.Renderer, res *session.Result) error {
	if r.Mode() == output.ModeJSON {
		return r.JSON(res)
	}

	r.Printf("Session %s\n\n", res.ID)

	headers := []string{"step", "op", "type", "url", "name", "identity", "state", "callbacks"}
	rows := make([][]any, 0, len(res.Steps))
	for _, s := range res.Steps {
		state := s.StateName
		if !s.Ran {
			state = "not run"
		}
		rows = append(rows, []any{s.Index, s.Op, s.Kind, s.URL, s.Name, s.Identity, state, s.Callbacks})
	}
	if err := r.Table(headers, rows); err != nil {
		return err
	}

	failed := 0
	for _, tr := range res.Transfers {
		if tr.Err != nil {
			failed++
		}
	}
	r.Printf("\n%d transfers (%d failed)", len(res.Transfers), failed)
	if res.Fetch != nil {
		r.Printf(", %d requests, %d cache hits", res.Fetch.Requests, res.Fetch.CacheHits)
	}
	r.Printf(" in %s\n", res.Elapsed.Round(time.Millisecond))
	if !res.Settled {
		r.Warnf("session did not settle before the timeout\n")
	}
	return nil
}

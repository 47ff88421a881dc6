// Package cli implements the claimsctl command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"claimpulse/internal/app"
	"claimpulse/internal/config"
	"claimpulse/internal/infrastructure"
	"claimpulse/internal/services"
)

const asOfLayout = "2006-01-02"

type options struct {
	configPath string
	logLevel   string
	asOf       string
	sources    config.SourcesConfig
}

// NewRootCommand builds the claimsctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "claimsctl",
		Short: "Load claims exports and print the computed metrics",
		Long: `claimsctl runs the claims metrics pipeline once against the configured
exports and prints the results as JSON.

Sources come from the configuration file and CLAIMS_SOURCES_* variables;
the source flags override both.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	pf.StringVar(&opts.asOf, "as-of", "", "evaluation date (YYYY-MM-DD), defaults to today")
	pf.StringVar(&opts.sources.Exposure, "exposure", "", "exposure export URI")
	pf.StringVar(&opts.sources.Risk, "risk", "", "risk export URI")
	pf.StringVar(&opts.sources.Checks, "checks", "", "check register export URI")
	pf.StringVar(&opts.sources.Intervention, "intervention", "", "intervention candidate export URI")
	pf.StringVar(&opts.sources.LossDevelopment, "loss-development", "", "loss development export URI")
	pf.StringVar(&opts.sources.Weekly, "weekly", "", "weekly report spreadsheet URI")

	root.AddCommand(
		newMetricsCommand(opts),
		newInterventionCommand(opts),
		newWeeklyCommand(opts),
		newSourcesCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree against the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *options) config() (*config.Config, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, err
	}

	overrides := map[*string]string{
		&cfg.Sources.Exposure:        o.sources.Exposure,
		&cfg.Sources.Risk:            o.sources.Risk,
		&cfg.Sources.Checks:          o.sources.Checks,
		&cfg.Sources.Intervention:    o.sources.Intervention,
		&cfg.Sources.LossDevelopment: o.sources.LossDevelopment,
		&cfg.Sources.Weekly:          o.sources.Weekly,
	}
	for dst, v := range overrides {
		if v != "" {
			*dst = v
		}
	}
	return cfg, nil
}

func (o *options) now() (func() time.Time, error) {
	if o.asOf == "" {
		return nil, nil
	}
	t, err := time.Parse(asOfLayout, o.asOf)
	if err != nil {
		return nil, fmt.Errorf("invalid --as-of %q: want YYYY-MM-DD", o.asOf)
	}
	return func() time.Time { return t }, nil
}

// refresh builds the pipeline, loads every configured source once and
// returns the service together with the per-source status.
func (o *options) refresh(cmd *cobra.Command) (*services.MetricsService, []services.SourceStatus, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}
	if len(cfg.Sources.URIs()) == 0 {
		return nil, nil, fmt.Errorf("no sources configured: pass --config or a source flag")
	}
	now, err := o.now()
	if err != nil {
		return nil, nil, err
	}

	logger := infrastructure.NewLogger(cmd.ErrOrStderr(), o.logLevel)
	svc := app.NewPipeline(cfg, logger, nil, nil, now)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	statuses := svc.Refresh(ctx)
	logger.Debug("refresh complete", slog.Int("sources", len(statuses)))
	return svc, statuses, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resultError turns a result error into a command failure after the result
// has been printed.
func resultError(name string, errMsg *string) error {
	if errMsg == nil {
		return nil
	}
	return fmt.Errorf("%s: %s", name, *errMsg)
}

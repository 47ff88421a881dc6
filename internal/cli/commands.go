package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"claimpulse/internal/app"
	"claimpulse/internal/exporter"
	"claimpulse/pkg/contracts/domain"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

func newMetricsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print the unified metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, statuses, err := opts.refresh(cmd)
			if err != nil {
				return err
			}
			result := svc.Metrics()
			if err := writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"metrics": result,
				"sources": statuses,
			}); err != nil {
				return err
			}
			return resultError("metrics", result.Error)
		},
	}
}

func newInterventionCommand(opts *options) *cobra.Command {
	var (
		alertsOnly bool
		format     string
		bom        bool
	)

	cmd := &cobra.Command{
		Use:   "intervention",
		Short: "Print the intervention candidates and their alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatJSON && format != formatCSV {
				return fmt.Errorf("invalid --format %q: want json or csv", format)
			}
			svc, _, err := opts.refresh(cmd)
			if err != nil {
				return err
			}

			if format == formatCSV {
				out := cmd.OutOrStdout()
				if alertsOnly {
					alerts := svc.Alerts()
					if err := resultError("intervention", alerts.Error); err != nil {
						return err
					}
					var list []domain.Alert
					if alerts.Data != nil {
						list = *alerts.Data
					}
					return exporter.Alerts(out, list, bom)
				}
				result := svc.Intervention()
				if err := resultError("intervention", result.Error); err != nil {
					return err
				}
				return exporter.Candidates(out, result.Data, bom)
			}

			alerts := svc.Alerts()
			if alerts.Data == nil && alerts.Error == nil {
				empty := []domain.Alert{}
				alerts.Data = &empty
			}
			if alertsOnly {
				if err := writeJSON(cmd.OutOrStdout(), alerts); err != nil {
					return err
				}
				return resultError("intervention", alerts.Error)
			}

			result := svc.Intervention()
			if err := writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"intervention": result,
				"alerts":       alerts,
			}); err != nil {
				return err
			}
			return resultError("intervention", result.Error)
		},
	}
	cmd.Flags().BoolVar(&alertsOnly, "alerts", false, "print only the alert payloads")
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json or csv")
	cmd.Flags().BoolVar(&bom, "bom", false, "prefix csv output with a UTF-8 byte order mark")
	return cmd
}

func newWeeklyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "weekly",
		Short: "Print the weekly report summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := opts.refresh(cmd)
			if err != nil {
				return err
			}
			result := svc.Weekly()
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			return resultError("weekly", result.Error)
		},
	}
}

func newSourcesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Load every configured source and print its status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, statuses, err := opts.refresh(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), statuses)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "claimsctl %s\n", app.Version)
			return err
		},
	}
}

package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"panomirror/mirror"
)

type processOptions struct {
	root        string
	userAgent   string
	timeout     time.Duration
	rateLimit   string
	metricsFile string
}

// processCmd represents the process command.
var processCmd = newProcessCmd()

func newProcessCmd() *cobra.Command {
	opts := &processOptions{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Rewrite CDN references and download render assets",
		Long: `Walk the mirror root, rewrite absolute and protocol-relative CDN references
in every text file to root-relative paths, write the entry redirect page and
download every render asset the files reference.

Files already present in the mirror are never fetched again, so an
interrupted run can simply be repeated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			runLogger := currentLogger().With("run_id", uuid.NewString())

			m, err := mirror.New(cfg, runLogger, mirror.NewMetrics(reg))
			if err != nil {
				return err
			}

			summary, runErr := m.Run(cmd.Context())
			printSummary(cmd.OutOrStdout(), summary)

			if opts.metricsFile != "" {
				if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}

			return runErr
		},
	}

	cmd.Flags().StringVarP(&opts.root, "root", "r", "", "mirror root directory (default $MIRROR_ROOT or ./webroot)")
	cmd.Flags().StringVar(&opts.userAgent, "user-agent", "", "user agent for asset requests")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "timeout for each asset request (default 30s)")
	cmd.Flags().StringVar(&opts.rateLimit, "rate-limit", "", "download rate limit per asset (e.g. 400k, 2m)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics in Prometheus text format to this file")

	return cmd
}

// config applies explicitly set flags on top of the environment configuration
func (o *processOptions) config(cmd *cobra.Command) (*mirror.Config, error) {
	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = o.root
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = o.userAgent
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if flags.Changed("rate-limit") {
		rate, err := mirror.ParseRateLimit(o.rateLimit)
		if err != nil {
			return nil, err
		}
		cfg.RateBytes = rate
	}

	return cfg, nil
}

func init() {
	rootCmd.AddCommand(processCmd)
}

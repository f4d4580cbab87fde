// Package cli wires the powerpulse commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	forecaster "github.com/aouyang1/go-powerpulse"
	"github.com/aouyang1/go-powerpulse/internal/config"
	"github.com/aouyang1/go-powerpulse/internal/ingest"
	"github.com/aouyang1/go-powerpulse/internal/logging"
	"github.com/aouyang1/go-powerpulse/timedataset"
)

// app aggregates configuration and shared dependencies for the commands.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	forecaster *forecaster.Forecaster
	csvPath    string
}

// observations reads the consumption history
func (a *app) observations() ([]timedataset.Observation, error) {
	path := a.cfg.Data.CSVPath
	if a.csvPath != "" {
		path = a.csvPath
	}
	loc, err := a.cfg.Data.Location()
	if err != nil {
		return nil, err
	}
	res, err := ingest.ReadFileIn(path, loc)
	if err != nil {
		return nil, err
	}
	ev := a.logger.Info()
	if res.Dropped > 0 {
		ev = a.logger.Warn()
	}
	ev.Str("path", path).Int("rows", res.Rows).Int("dropped", res.Dropped).Msg("read observations")
	return res.Observations, nil
}

// NewRootCmd builds the powerpulse command tree.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile    string
		logLevel   string
		cpuProfile string
		prof       interface{ Stop() }
	)
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "powerpulse",
		Short:         "Forecast household consumption and surface savings opportunities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}

			logger := logging.New(cfg.Logging, cmd.ErrOrStderr())
			f, err := forecaster.New(&cfg.Forecaster, logger)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger.With().Str("component", "cli").Logger()
			a.forecaster = f

			if cpuProfile != "" {
				prof = profile.Start(profile.CPUProfile, profile.ProfilePath(cpuProfile), profile.Quiet)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if prof != nil {
				prof.Stop()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")
	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "Directory to write a CPU profile to")
	rootCmd.PersistentFlags().StringVar(&a.csvPath, "csv", "", "Override the consumption history CSV defined in config")

	rootCmd.AddCommand(newTrainCmd(a))
	rootCmd.AddCommand(newForecastCmd(a))
	rootCmd.AddCommand(newAnalyzeCmd(a))
	rootCmd.AddCommand(newPlotCmd(a))
	rootCmd.AddCommand(newModelCmd(a))
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

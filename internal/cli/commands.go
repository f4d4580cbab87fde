package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	forecaster "github.com/aouyang1/go-powerpulse"
)

func newTrainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the forecast model on the consumption history",
		RunE: func(cmd *cobra.Command, args []string) error {
			obs, err := a.observations()
			if err != nil {
				return err
			}
			res, err := a.forecaster.Train(obs)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newForecastCmd(a *app) *cobra.Command {
	var (
		refresh bool
		steps   int
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast the upcoming consumption",
		Long: "Forecast the upcoming consumption. Without --steps the forecast cache is served and " +
			"refreshed whenever it is stale.",
		RunE: func(cmd *cobra.Command, args []string) error {
			obs, err := a.observations()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("steps") {
				points, err := a.forecaster.Forecast(obs, steps)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), points)
			}
			points, err := a.forecaster.LoadForecast(obs, refresh)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), points)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Retrain and rebuild the forecast cache")
	cmd.Flags().IntVar(&steps, "steps", 0, "Forecast this many steps with the stored model, bypassing the cache")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var homeSize string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify the forecast into events and summarize the potential savings",
		RunE: func(cmd *cobra.Command, args []string) error {
			obs, err := a.observations()
			if err != nil {
				return err
			}
			analysis, err := a.forecaster.Analyze(obs, homeSize)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), analysis)
		},
	}
	cmd.Flags().StringVar(&homeSize, "home-size", "", "Home size category used for the baseline (small, medium, large)")
	return cmd
}

func newPlotCmd(a *app) *cobra.Command {
	var (
		htmlPath string
		pngPath  string
		homeSize string
	)
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot the history, forecast and savings as HTML and/or PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			if htmlPath == "" && pngPath == "" {
				return errors.New("at least one of --html or --png must be provided")
			}
			obs, err := a.observations()
			if err != nil {
				return err
			}
			history, err := a.forecaster.Prepare(obs)
			if err != nil {
				return err
			}
			analysis, err := a.forecaster.Analyze(obs, homeSize)
			if err != nil {
				return err
			}

			if htmlPath != "" {
				if err := writeFile(htmlPath, func(file *os.File) error {
					return forecaster.PlotHTML(file, history, analysis)
				}); err != nil {
					return err
				}
				a.logger.Info().Str("path", htmlPath).Msg("wrote html plot")
			}
			if pngPath != "" {
				if err := writeFile(pngPath, func(file *os.File) error {
					return forecaster.PlotPNG(file, history, analysis)
				}); err != nil {
					return err
				}
				a.logger.Info().Str("path", pngPath).Msg("wrote png plot")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlPath, "html", "", "Path to write the interactive HTML chart")
	cmd.Flags().StringVar(&pngPath, "png", "", "Path to write the PNG chart")
	cmd.Flags().StringVar(&homeSize, "home-size", "", "Home size category used for the baseline (small, medium, large)")
	return cmd
}

func newModelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "model",
		Short: "Print the stored model",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.forecaster.Model()
			if err != nil {
				return err
			}
			return m.TablePrint(cmd.OutOrStdout(), "", "  ")
		},
	}
}

func writeFile(path string, render func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

package cli

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/mvermeulen/analemma/pkg/chart"
	"github.com/mvermeulen/analemma/pkg/errors"
	"github.com/mvermeulen/analemma/pkg/pipeline"
)

// Chart kind names accepted by --kind.
const (
	chartSky         = "sky"
	chartFigure8     = "figure8"
	chartDeclination = "declination"
	chartEOT         = "eot"
)

var validChartKinds = map[string]bool{
	chartSky:         true,
	chartFigure8:     true,
	chartDeclination: true,
	chartEOT:         true,
}

// chartCommand creates the chart command.
func (c *CLI) chartCommand() *cobra.Command {
	var flags observerFlags
	var kindsStr, output string
	var width, height int

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render standalone analemma charts as PNG",
		Long: `Chart renders the computed year without a photograph: the figure-eight
in sky coordinates, the equation of time against declination, or either
quantity over the days of the year.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := parseChartKinds(kindsStr)
			for _, k := range kinds {
				if !validChartKinds[k] {
					return errors.New(errors.ErrCodeInvalidInput,
						"invalid chart kind %q (use sky, figure8, declination or eot)", k)
				}
			}

			runner, err := c.newRunner(flags.noCache, flags.redisAddr)
			if err != nil {
				return err
			}
			result, err := runner.Compute(cmd.Context(), flags.options(cmd))
			if err != nil {
				return err
			}

			cfg := chart.DefaultConfig()
			cfg.Width, cfg.Height = width, height
			for _, kind := range kinds {
				img, err := renderChart(kind, result, cfg, flags)
				if err != nil {
					return err
				}
				path := chartPath(output, kind, len(kinds) > 1)
				if err := imaging.Save(img, path); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "failed to save chart")
				}
				printFile(path)
			}
			printSuccess("Rendered %d chart(s)", len(kinds))
			return nil
		},
	}

	flags.register(cmd, c.config)
	c.requireObserver(cmd)
	cmd.Flags().StringVar(&kindsStr, "kind", chartSky, "chart kind(s): sky, figure8, declination, eot (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "analemma.png", "output file (single kind) or base path (multiple)")
	cmd.Flags().IntVar(&width, "width", 1000, "chart width in pixels")
	cmd.Flags().IntVar(&height, "height", 700, "chart height in pixels")

	return cmd
}

func parseChartKinds(s string) []string {
	if s == "" {
		return []string{chartSky}
	}
	return strings.Split(s, ",")
}

func renderChart(kind string, result *pipeline.Result, cfg chart.Config, flags observerFlags) (image.Image, error) {
	switch kind {
	case chartSky:
		cfg.Title = fmt.Sprintf("Analemma %d at %02d:%02d (%.2f, %.2f)",
			result.Horizon[0].Date.Year(), flags.hour, flags.minute, flags.lat, flags.lon)
		return chart.SkyChart(result.Horizon, cfg)
	case chartFigure8:
		cfg.Title = "Equation of time vs declination"
		return chart.Figure8Chart(result.Positions, cfg)
	case chartDeclination:
		cfg.Title = "Solar declination over the year"
		return chart.DeclinationChart(result.Positions, cfg)
	case chartEOT:
		cfg.Title = "Equation of time over the year"
		return chart.EquationOfTimeChart(result.Positions, cfg)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "invalid chart kind %q", kind)
}

// chartPath derives the output path for one chart. With multiple kinds the
// kind is appended to the base name.
func chartPath(output, kind string, multi bool) string {
	if !multi {
		return output
	}
	ext := filepath.Ext(output)
	if ext == "" {
		ext = ".png"
	}
	base := strings.TrimSuffix(output, filepath.Ext(output))
	return base + "_" + kind + ext
}

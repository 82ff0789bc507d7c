package cli

import (
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/mvermeulen/analemma/pkg/chart"
	"github.com/mvermeulen/analemma/pkg/errors"
)

// compareCommand creates the compare command.
func (c *CLI) compareCommand() *cobra.Command {
	var flags observerFlags
	var output string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the approximate model against the JPL Horizons ephemeris",
		Long: `Compare computes the same year with both solar models and reports how
far they disagree. Horizons queries go over the network and are cached,
so the first run for a year is slow and later runs are not.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(flags.noCache, flags.redisAddr)
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), "Querying JPL Horizons for the year...")
			spinner.Start()
			result, err := runner.Compare(cmd.Context(), flags.options(cmd))
			if err != nil {
				if spinner.Cancelled() {
					spinner.Stop()
				} else {
					spinner.StopWithError("Comparison failed")
				}
				return err
			}
			spinner.Stop()

			d := result.Deltas
			printSuccess("Compared %d days", d.Days)
			printKeyValue("altitude", fmt.Sprintf("mean %.3f°, max %.3f°", d.MeanAltitudeDeg, d.MaxAltitudeDeg))
			printKeyValue("azimuth", fmt.Sprintf("mean %.3f°, max %.3f°", d.MeanAzimuthDeg, d.MaxAzimuthDeg))

			if output != "" {
				cfg := chart.DefaultConfig()
				cfg.Title = fmt.Sprintf("Approximate vs Horizons, %d", flags.year)
				img, err := chart.CompareChart(result.Approximate, result.Delegated, "approximate", "horizons", cfg)
				if err != nil {
					return err
				}
				if err := imaging.Save(img, output); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "failed to save comparison chart")
				}
				printFile(output)
			}
			return nil
		},
	}

	flags.register(cmd, c.config)
	c.requireObserver(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "also render a comparison chart to this file")

	return cmd
}

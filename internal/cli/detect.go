package cli

import (
	"encoding/json"
	"os"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/mvermeulen/analemma/pkg/detect"
	"github.com/mvermeulen/analemma/pkg/errors"
)

// detectCommand creates the detect command.
func (c *CLI) detectCommand() *cobra.Command {
	var asJSON bool
	var minMask int

	cmd := &cobra.Command{
		Use:   "detect [image]",
		Short: "Find the Sun in a photograph",
		Long: `Detect locates the brightest region of a photograph and reports its
center pixel. Detection tries a blob centroid first, then a weighted
centroid, then falls back to the single brightest pixel.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := imaging.Open(args[0], imaging.AutoOrientation(true))
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidImage, err, "failed to load photograph")
			}

			d := detect.New(detect.WithMinMaskPixels(minMask))
			prog := newProgress(loggerFromContext(cmd.Context()))
			result, err := d.Detect(img)
			if err != nil {
				return err
			}
			prog.done("Detected sun")

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			printSuccess("Sun at pixel (%d, %d)", result.Center.X, result.Center.Y)
			printDetail("strategy: %s", result.Strategy)
			if result.Area > 0 {
				printDetail("area: %d px", result.Area)
			}
			printDetail("image: %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the detection result as JSON")
	cmd.Flags().IntVar(&minMask, "min-mask", detect.DefaultMinMaskPixels, "minimum mask size for the weighted centroid")

	return cmd
}

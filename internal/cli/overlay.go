package cli

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvermeulen/analemma/pkg/errors"
)

// overlayCommand creates the overlay command.
func (c *CLI) overlayCommand() *cobra.Command {
	var flags observerFlags
	var metadataPath, captureStr, anchorStr, output string
	var focal, sensorW, sensorH, hfov, vfov float64
	var labelInterval int

	cmd := &cobra.Command{
		Use:   "overlay [image]",
		Short: "Draw the year's analemma onto a photograph",
		Long: `Overlay projects the Sun's yearly path into the photograph's pixel
space and draws it. The projection is anchored at the Sun's position in
the photograph, found by detection or given with --anchor, and scaled by
the camera's pixels-per-degree calibration.

Observer, capture time and camera can come from flags or from a metadata
sidecar file (--metadata); explicit flags win.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd)
			opts.MetadataPath = metadataPath
			opts.FocalLengthMM = focal
			opts.SensorWidthMM = sensorW
			opts.SensorHeightMM = sensorH
			opts.HFOVDeg = hfov
			opts.VFOVDeg = vfov
			opts.LabelInterval = labelInterval
			if len(args) == 1 {
				opts.ImagePath = args[0]
			}
			if opts.ImagePath == "" && opts.MetadataPath == "" {
				return errors.New(errors.ErrCodeInvalidInput, "give an image argument or --metadata")
			}

			if captureStr != "" {
				t, err := time.ParseInLocation("2006-01-02 15:04:05", captureStr, time.Local)
				if err != nil {
					return errors.New(errors.ErrCodeInvalidInput, "invalid --time, want YYYY-MM-DD HH:MM:SS")
				}
				opts.CaptureTime = t
			}
			if anchorStr != "" {
				x, y, err := parseAnchor(anchorStr)
				if err != nil {
					return err
				}
				opts.AnchorX, opts.AnchorY, opts.AnchorSet = x, y, true
			}

			runner, err := c.newRunner(flags.noCache, flags.redisAddr)
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), "Projecting the year onto the photograph...")
			spinner.Start()
			result, err := runner.Overlay(cmd.Context(), opts)
			if err != nil {
				spinner.StopWithError("Overlay failed")
				return err
			}
			spinner.Stop()

			if err := os.WriteFile(output, result.Image, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "failed to write overlay")
			}

			printSuccess("Overlay written")
			printFile(output)
			if result.Detection != "" {
				printDetail("anchor: (%d, %d) via %s detection",
					result.Anchor.Pixel.X, result.Anchor.Pixel.Y, result.Detection)
			} else {
				printDetail("anchor: (%d, %d) given", result.Anchor.Pixel.X, result.Anchor.Pixel.Y)
			}
			printDetail("sun at capture: %.2f° altitude, %.2f° azimuth",
				result.Anchor.Altitude, result.Anchor.Azimuth)
			printDetail("drawn %d, below horizon %d, out of frame %d",
				result.Render.Drawn, result.Projection.BelowHorizon, result.Render.OutOfBounds)
			return nil
		},
	}

	flags.register(cmd, c.config)
	cmd.Flags().StringVar(&metadataPath, "metadata", "", "observation metadata sidecar (metadata.txt or .toml)")
	cmd.Flags().StringVar(&captureStr, "time", "", "capture time as YYYY-MM-DD HH:MM:SS local")
	cmd.Flags().StringVar(&anchorStr, "anchor", "", "anchor pixel as X,Y instead of detecting the sun")
	cmd.Flags().StringVarP(&output, "output", "o", "overlay.png", "output file")
	cmd.Flags().Float64Var(&focal, "focal", c.config.Camera.FocalLengthMM, "lens focal length in mm")
	cmd.Flags().Float64Var(&sensorW, "sensor-width", c.config.Camera.SensorWidthMM, "sensor width in mm (default: full frame)")
	cmd.Flags().Float64Var(&sensorH, "sensor-height", c.config.Camera.SensorHeightMM, "sensor height in mm (default: full frame)")
	cmd.Flags().Float64Var(&hfov, "hfov", 0, "horizontal field of view in degrees (overrides focal length)")
	cmd.Flags().Float64Var(&vfov, "vfov", 0, "vertical field of view in degrees (overrides focal length)")
	cmd.Flags().IntVar(&labelInterval, "label-interval", 0, "label every Nth plotted day (0: month starts only)")

	return cmd
}

// parseAnchor parses "X,Y" into pixel coordinates.
func parseAnchor(s string) (int, int, error) {
	xs, ys, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid --anchor, want X,Y")
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid --anchor x coordinate")
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid --anchor y coordinate")
	}
	return x, y, nil
}

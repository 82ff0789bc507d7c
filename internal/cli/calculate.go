package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvermeulen/analemma/pkg/pipeline"
	"github.com/mvermeulen/analemma/pkg/sky"
	"github.com/mvermeulen/analemma/pkg/solar"
)

// observerFlags are the flags shared by every command that needs an
// observer and a computed year.
type observerFlags struct {
	lat       float64
	lon       float64
	tz        float64
	year      int
	hour      int
	minute    int
	mode      string
	noCache   bool
	redisAddr string
	refresh   bool

	// tzFromConfig records that the config file set a timezone, so the
	// default is taken as explicit even when --tz is not given.
	tzFromConfig bool
}

// register adds the shared flags to cmd, with defaults from the config file.
func (f *observerFlags) register(cmd *cobra.Command, cfg fileConfig) {
	var tzDefault float64
	if cfg.Observer.Timezone != nil {
		tzDefault = *cfg.Observer.Timezone
		f.tzFromConfig = true
	}
	cmd.Flags().Float64Var(&f.lat, "lat", cfg.Observer.Latitude, "observer latitude in degrees, north positive")
	cmd.Flags().Float64Var(&f.lon, "lon", cfg.Observer.Longitude, "observer longitude in degrees, east positive")
	cmd.Flags().Float64Var(&f.tz, "tz", tzDefault, "UTC offset in hours (default: derived from longitude)")
	cmd.Flags().IntVar(&f.year, "year", 0, "year to compute (default: current year)")
	cmd.Flags().IntVar(&f.hour, "hour", pipeline.DefaultHour, "local clock hour of the daily sample")
	cmd.Flags().IntVar(&f.minute, "minute", pipeline.DefaultMinute, "local clock minute of the daily sample")
	cmd.Flags().StringVar(&f.mode, "mode", pipeline.ModeApproximate, "solar model: approximate or horizons")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the computation cache")
	cmd.Flags().StringVar(&f.redisAddr, "cache-redis", "", "use a Redis cache at this address instead of the file cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when the cache has the series")
}

// requireObserver marks lat/lon as required unless the config file
// supplies them. Commands that can take the observer from a metadata
// sidecar skip this.
func (c *CLI) requireObserver(cmd *cobra.Command) {
	if c.config.hasObserver() {
		return
	}
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
}

// options builds pipeline options from the flags.
func (f *observerFlags) options(cmd *cobra.Command) pipeline.Options {
	return pipeline.Options{
		Latitude:    f.lat,
		Longitude:   f.lon,
		Timezone:    f.tz,
		TimezoneSet: cmd.Flags().Changed("tz") || f.tzFromConfig,
		Year:        f.year,
		Hour:        f.hour,
		Minute:      f.minute,
		Mode:        f.mode,
		Refresh:     f.refresh,
	}
}

// calculateCommand creates the calculate command.
func (c *CLI) calculateCommand() *cobra.Command {
	var flags observerFlags
	var asJSON, events bool

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Compute the analemma for an observer and print statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(flags.noCache, flags.redisAddr)
			if err != nil {
				return err
			}

			prog := newProgress(loggerFromContext(cmd.Context()))
			result, err := runner.Compute(cmd.Context(), flags.options(cmd))
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Computed %d days", result.Stats.Days))

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			printCalculateSummary(result, flags)
			if events {
				printSunEvents(flags.lat, flags.lon)
			}
			return nil
		},
	}

	flags.register(cmd, c.config)
	c.requireObserver(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full series as JSON")
	cmd.Flags().BoolVar(&events, "events", false, "also print today's dawn/sunrise/sunset/dusk")

	return cmd
}

func printCalculateSummary(result *pipeline.Result, flags observerFlags) {
	s := result.Stats

	printNewline()
	fmt.Println(StyleTitle.Render("Analemma"))
	printSeriesStats(s.Days, s.DaysAboveHorizon, result.CacheHit)
	printNewline()

	printKeyValue("altitude", fmt.Sprintf("%.2f° to %.2f° (span %.2f°)", s.AltitudeMin, s.AltitudeMax, s.AltitudeSpan))
	printKeyValue("azimuth", fmt.Sprintf("%.2f° to %.2f° (span %.2f°)", s.AzimuthMin, s.AzimuthMax, s.AzimuthSpan))
	printKeyValue("declination", fmt.Sprintf("%.2f° to %.2f°", s.DeclinationMin, s.DeclinationMax))
	printKeyValue("eq. of time", fmt.Sprintf("%.1f to %.1f min (span %.1f min)", s.EquationOfTimeMin, s.EquationOfTimeMax, s.EquationOfTimeSpan))

	if len(result.Horizon) > 0 {
		// Solar noon drifts with the equation of time; show today's when
		// the computed year contains it, otherwise the first day's.
		idx := 0
		now := time.Now()
		for i, p := range result.Horizon {
			if p.Date.Month() == now.Month() && p.Date.Day() == now.Day() {
				idx = i
				break
			}
		}
		p := result.Horizon[idx]
		obs := pipelineObserver(flags)
		h, m := obs.SolarNoon(p.EquationOfTime)
		printKeyValue("solar noon", fmt.Sprintf("%02d:%02d on %s", h, m, p.Date.Format("Jan 2")))
		printKeyValue("noon altitude", fmt.Sprintf("%.2f°", obs.MaxAltitude(p.Declination)))
	}
}

// pipelineObserver rebuilds the observer from the flags for display helpers.
func pipelineObserver(flags observerFlags) sky.Observer {
	opts := pipeline.Options{
		Latitude:    flags.lat,
		Longitude:   flags.lon,
		Timezone:    flags.tz,
		TimezoneSet: flags.tz != 0,
	}
	return opts.Observer()
}

func printSunEvents(lat, lon float64) {
	calc := solar.NewEventCalc(lat, lon)
	events, err := calc.EventsForDate(time.Now())
	if err != nil {
		printWarning("no sun events today: %v", err)
		return
	}

	printNewline()
	fmt.Println(StyleTitle.Render("Today"))
	printKeyValue("civil dawn", events.CivilDawn.Local().Format("15:04"))
	printKeyValue("sunrise", events.Sunrise.Local().Format("15:04"))
	printKeyValue("sunset", events.Sunset.Local().Format("15:04"))
	printKeyValue("civil dusk", events.CivilDusk.Local().Format("15:04"))
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gateway-stream/src/market_data/historical"
	"gateway-stream/src/models"
	"gateway-stream/src/storage"
	"gateway-stream/src/utils"

	"github.com/spf13/cobra"
)

var (
	historyContract  contractFlags
	historyDuration  string
	historyBarSize   string
	historyWhat      string
	historyEnd       string
	historyRTH       bool
	historyLastClose bool
	historyStore     bool

	storedFrom string

	headContract contractFlags
	headWhat     string
	headRTH      bool

	histogramContract contractFlags
	histogramPeriod   string
	histogramRTH      bool

	ticksContract contractFlags
	ticksStart    string
	ticksEnd      string
	ticksCount    int32
	ticksWhat     string
	ticksRTH      bool
)

// parseTime accepts RFC 3339 or the gateway's "yyyymmdd hh:mm:ss" in UTC.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("20060102 15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	return t, nil
}

// -----------------------------------------------------------------------------
// history
// -----------------------------------------------------------------------------

var historyCmd = &cobra.Command{
	Use:   "history SYMBOL",
	Short: "Fetch historical bars",
	Long: `Fetch historical bars and print them as JSON lines, or store them.

Examples:
  gateway-stream history MSFT --duration "30 D" --bar-size "1 day"
  gateway-stream history AAPL --bar-size "5 mins" --last-close --store`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		duration, err := models.ParseDuration(historyDuration)
		if err != nil {
			return err
		}
		barSize, err := models.ParseBarSize(historyBarSize)
		if err != nil {
			return err
		}
		what := models.WhatToShow(strings.ToUpper(historyWhat))

		req := historical.BarsRequest{
			Contract:   contractFromFlags(args[0], &historyContract),
			Duration:   duration,
			BarSize:    barSize,
			WhatToShow: &what,
			UseRTH:     historyRTH,
		}
		switch {
		case historyEnd != "":
			end, err := parseTime(historyEnd)
			if err != nil {
				return err
			}
			req.EndDate = &end
		case historyLastClose:
			end := utils.GetCalendar(appConfig.CalendarMIC, appLogger).LastSessionClose(time.Now()).UTC()
			appLogger.Info("Using last session close %s as end date", end.Format(time.RFC3339))
			req.EndDate = &end
		}

		ctx, cancel := signalContext()
		defer cancel()

		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		bars, err := historical.NewService(c).Bars(ctx, req)
		if err != nil {
			return err
		}
		appLogger.Info("Received %d bars for %s", len(bars), req.Contract)

		if !historyStore {
			for _, b := range bars {
				if err := printJSON(b); err != nil {
					return err
				}
			}
			return nil
		}

		store, err := storage.NewBarStore(appConfig.MConfig, appLogger)
		if err != nil {
			return err
		}
		if err := store.Initialize(); err != nil {
			return err
		}
		defer store.Close()

		series := models.MBarSeries{Symbol: req.Contract.Symbol, BarSize: barSize, WhatToShow: what}
		if err := store.SaveBars(series, bars); err != nil {
			return err
		}
		return store.CleanupOldData()
	},
}

// -----------------------------------------------------------------------------
// stored
// -----------------------------------------------------------------------------

var storedCmd = &cobra.Command{
	Use:   "stored [SYMBOL BAR_SIZE WHAT_TO_SHOW]",
	Short: "List stored series, or print the bars of one",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("expected no arguments or SYMBOL BAR_SIZE WHAT_TO_SHOW")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewBarStore(appConfig.MConfig, appLogger)
		if err != nil {
			return err
		}
		if err := store.Initialize(); err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 0 {
			series, err := store.Series()
			if err != nil {
				return err
			}
			for _, s := range series {
				fmt.Println(s)
			}
			return nil
		}

		barSize, err := models.ParseBarSize(args[1])
		if err != nil {
			return err
		}
		series := models.MBarSeries{Symbol: args[0], BarSize: barSize, WhatToShow: models.WhatToShow(strings.ToUpper(args[2]))}

		from := time.Unix(0, 0)
		if storedFrom != "" {
			if from, err = parseTime(storedFrom); err != nil {
				return err
			}
		}
		bars, err := store.LoadBars(series, from, time.Now())
		if err != nil {
			return err
		}
		for _, b := range bars {
			if err := printJSON(b); err != nil {
				return err
			}
		}
		return nil
	},
}

// -----------------------------------------------------------------------------
// head-timestamp
// -----------------------------------------------------------------------------

var headTimestampCmd = &cobra.Command{
	Use:   "head-timestamp SYMBOL",
	Short: "Print the earliest available data point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		ts, err := historical.NewService(c).HeadTimestamp(ctx, contractFromFlags(args[0], &headContract),
			models.WhatToShow(strings.ToUpper(headWhat)), headRTH)
		if err != nil {
			return err
		}
		fmt.Println(ts.UTC().Format(time.RFC3339))
		return nil
	},
}

// -----------------------------------------------------------------------------
// histogram
// -----------------------------------------------------------------------------

var histogramCmd = &cobra.Command{
	Use:   "histogram SYMBOL",
	Short: "Print the volume histogram over a period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := models.ParseBarSize(histogramPeriod)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		entries, err := historical.NewService(c).HistogramData(ctx, contractFromFlags(args[0], &histogramContract), histogramRTH, period)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := printJSON(e); err != nil {
				return err
			}
		}
		return nil
	},
}

// -----------------------------------------------------------------------------
// ticks
// -----------------------------------------------------------------------------

var ticksCmd = &cobra.Command{
	Use:   "ticks SYMBOL",
	Short: "Print historical ticks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := historical.TicksRequest{
			Contract:      contractFromFlags(args[0], &ticksContract),
			NumberOfTicks: ticksCount,
			WhatToShow:    models.WhatToShow(strings.ToUpper(ticksWhat)),
			UseRTH:        ticksRTH,
		}
		if ticksStart != "" {
			start, err := parseTime(ticksStart)
			if err != nil {
				return err
			}
			req.Start = &start
		}
		if ticksEnd != "" {
			end, err := parseTime(ticksEnd)
			if err != nil {
				return err
			}
			req.End = &end
		}

		ctx, cancel := signalContext()
		defer cancel()

		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		sub, err := historical.NewService(c).HistoricalTicks(ctx, req)
		if err != nil {
			return err
		}
		defer sub.Close()

		for {
			batch, err := sub.Next(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := printJSON(batch); err != nil {
				return err
			}
		}
	},
}

// -----------------------------------------------------------------------------

func init() {
	historyContract.register(historyCmd)
	historyCmd.Flags().StringVar(&historyDuration, "duration", "30 D", "history window, e.g. \"30 D\"")
	historyCmd.Flags().StringVar(&historyBarSize, "bar-size", "1 day", "bar size, e.g. \"5 mins\"")
	historyCmd.Flags().StringVar(&historyWhat, "what", "TRADES", "data type")
	historyCmd.Flags().StringVar(&historyEnd, "end", "", "end date, RFC 3339 or \"yyyymmdd hh:mm:ss\" UTC")
	historyCmd.Flags().BoolVar(&historyRTH, "rth", true, "regular trading hours only")
	historyCmd.Flags().BoolVar(&historyLastClose, "last-close", false, "end at the last session close of the configured calendar")
	historyCmd.Flags().BoolVar(&historyStore, "store", false, "save bars to the configured store instead of printing")

	storedCmd.Flags().StringVar(&storedFrom, "from", "", "first bar time, RFC 3339 or \"yyyymmdd hh:mm:ss\" UTC")

	headContract.register(headTimestampCmd)
	headTimestampCmd.Flags().StringVar(&headWhat, "what", "TRADES", "data type")
	headTimestampCmd.Flags().BoolVar(&headRTH, "rth", true, "regular trading hours only")

	histogramContract.register(histogramCmd)
	histogramCmd.Flags().StringVar(&histogramPeriod, "period", "1 week", "histogram period, e.g. \"1 week\"")
	histogramCmd.Flags().BoolVar(&histogramRTH, "rth", true, "regular trading hours only")

	ticksContract.register(ticksCmd)
	ticksCmd.Flags().StringVar(&ticksStart, "start", "", "first tick time")
	ticksCmd.Flags().StringVar(&ticksEnd, "end", "", "last tick time")
	ticksCmd.Flags().Int32Var(&ticksCount, "count", 1000, "number of ticks")
	ticksCmd.Flags().StringVar(&ticksWhat, "what", "TRADES", "TRADES, MIDPOINT or BID_ASK")
	ticksCmd.Flags().BoolVar(&ticksRTH, "rth", true, "regular trading hours only")
}

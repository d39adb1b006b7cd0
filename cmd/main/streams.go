package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gateway-stream/src/accounts"
	"gateway-stream/src/market_data/depth"
	"gateway-stream/src/market_data/historical"
	"gateway-stream/src/models"
	"gateway-stream/src/server"
	"gateway-stream/src/subscriptions"
	"gateway-stream/src/utils"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	depthContract contractFlags
	depthRows     int32
	depthSmart    bool

	positionsAccount string
	positionsModel   string

	relayBarSize  string
	relayDuration string
	relayWhat     string
	relayRTH      bool
)

// -----------------------------------------------------------------------------
// depth
// -----------------------------------------------------------------------------

var depthCmd = &cobra.Command{
	Use:   "depth SYMBOL",
	Short: "Stream order book rows until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		sub, err := depth.NewService(c).MarketDepth(ctx, contractFromFlags(args[0], &depthContract), depthRows, depthSmart)
		if err != nil {
			return err
		}
		defer cancelAndClose(sub)

		return printUntilDone(ctx, func(ctx context.Context) (interface{}, error) { return sub.Next(ctx) })
	},
}

// -----------------------------------------------------------------------------
// positions-multi
// -----------------------------------------------------------------------------

var positionsMultiCmd = &cobra.Command{
	Use:   "positions-multi",
	Short: "Stream positions of an account and model until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		sub, err := accounts.NewService(c).PositionsMulti(ctx, positionsAccount, positionsModel)
		if err != nil {
			return err
		}
		defer cancelAndClose(sub)

		return printUntilDone(ctx, func(ctx context.Context) (interface{}, error) { return sub.Next(ctx) })
	},
}

// cancelAndClose sends the cancel before the connection is closed, since
// Close alone sends it in the background.
func cancelAndClose[T any](sub *subscriptions.Subscription[T]) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sub.Cancel(ctx)
	sub.Close()
}

// printUntilDone prints values until the stream ends or ctx is cancelled.
func printUntilDone(ctx context.Context, next func(context.Context) (interface{}, error)) error {
	for {
		v, err := next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return nil
		case err != nil:
			return err
		}
		if err := printJSON(v); err != nil {
			return err
		}
	}
}

// -----------------------------------------------------------------------------
// relay
// -----------------------------------------------------------------------------

var relayCmd = &cobra.Command{
	Use:   "relay SYMBOL...",
	Short: "Serve live bar updates of symbols over websocket",
	Long: `Open a keep-up-to-date bar request per symbol and relay every update to
websocket clients on the configured relay address. Each symbol is published as
stream "bars:SYMBOL"; the last complete bar of the initial history seeds it.
Stream "market:MIC" reports open/closed transitions of the configured calendar.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig.Relay.Port == 0 {
			return fmt.Errorf("relay.port is not configured")
		}
		duration, err := models.ParseDuration(relayDuration)
		if err != nil {
			return err
		}
		barSize, err := models.ParseBarSize(relayBarSize)
		if err != nil {
			return err
		}
		what := models.WhatToShow(strings.ToUpper(relayWhat))

		ctx, cancel := signalContext()
		defer cancel()

		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		relay := server.NewRelayServer(appConfig.MConfig, appLogger.Named("relay"))
		hist := historical.NewService(c)

		group, gctx := errgroup.WithContext(ctx)
		group.Go(relay.Start)
		group.Go(func() error {
			<-gctx.Done()
			return relay.Stop()
		})

		mic := appConfig.CalendarMIC
		scheduler := utils.NewMarketScheduler(utils.GetCalendar(mic, appLogger), appLogger)
		group.Go(func() error {
			scheduler.Run(gctx, time.Minute, func(open bool) {
				relay.Broadcast(&models.MRelayMessage{Stream: "market:" + mic, Data: map[string]bool{"open": open}})
			})
			return nil
		})

		for _, symbol := range args {
			req := historical.BarsRequest{
				Contract:   models.Stock(symbol),
				Duration:   duration,
				BarSize:    barSize,
				WhatToShow: &what,
				UseRTH:     relayRTH,
			}
			stream := "bars:" + symbol

			bars, err := hist.Bars(gctx, req)
			if err != nil {
				appLogger.Warning("Initial history for %s failed: %v", symbol, err)
			} else if len(bars) > 0 {
				relay.UpdateState(&models.MRelayMessage{
					Stream:    stream,
					Timestamp: time.Now().UnixMilli(),
					Data:      bars[len(bars)-1],
				})
			}

			sub, err := hist.HistoricalDataUpdates(gctx, req)
			if err != nil {
				cancel()
				group.Wait()
				return err
			}
			group.Go(func() error {
				defer cancelAndClose(sub)
				err := server.Pump(gctx, sub, relay, stream)
				if gctx.Err() != nil {
					return nil
				}
				if err == nil {
					return fmt.Errorf("updates for %s ended", symbol)
				}
				return err
			})
		}

		appLogger.Info("Relaying %d streams", len(args))
		return group.Wait()
	},
}

// -----------------------------------------------------------------------------

func init() {
	depthContract.register(depthCmd)
	depthCmd.Flags().Int32Var(&depthRows, "rows", 10, "number of book rows")
	depthCmd.Flags().BoolVar(&depthSmart, "smart", false, "aggregate depth across exchanges")

	positionsMultiCmd.Flags().StringVar(&positionsAccount, "account", "", "account id")
	positionsMultiCmd.Flags().StringVar(&positionsModel, "model", "", "model code")

	relayCmd.Flags().StringVar(&relayBarSize, "bar-size", "5 mins", "bar size")
	relayCmd.Flags().StringVar(&relayDuration, "duration", "1 D", "initial history window")
	relayCmd.Flags().StringVar(&relayWhat, "what", "TRADES", "data type")
	relayCmd.Flags().BoolVar(&relayRTH, "rth", true, "regular trading hours only")
}

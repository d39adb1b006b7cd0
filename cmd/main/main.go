package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gateway-stream/src/client"
	"gateway-stream/src/config"
	"gateway-stream/src/logger"
	"gateway-stream/src/metrics"
	"gateway-stream/src/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	appConfig  *config.Config
	appLogger  *logger.Logger
	collector  *metrics.Collector
)

var rootCmd = &cobra.Command{
	Use:           "gateway-stream",
	Short:         "Stream historical data, depth and positions from a trading gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig(configPath)
		if err != nil {
			return err
		}
		appConfig = cfg
		appLogger = logger.NewLogger(cfg.MConfig, cfg.Name)
		collector = metrics.NewCollector(prometheus.DefaultRegisterer)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			appLogger.Sync()
		}
	},
}

// -----------------------------------------------------------------------------

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/default.yaml", "path to config file")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(storedCmd)
	rootCmd.AddCommand(headTimestampCmd)
	rootCmd.AddCommand(histogramCmd)
	rootCmd.AddCommand(ticksCmd)
	rootCmd.AddCommand(depthCmd)
	rootCmd.AddCommand(positionsMultiCmd)
	rootCmd.AddCommand(relayCmd)
}

// -----------------------------------------------------------------------------
// Shared helpers
// -----------------------------------------------------------------------------

// signalContext ends on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func connect(ctx context.Context) (*client.Client, error) {
	c, err := client.Connect(ctx, appConfig.MConfig, appLogger, client.WithMetrics(collector))
	if err != nil {
		return nil, err
	}
	appLogger.Info("Connected to %s:%d (server version %d)", appConfig.Gateway.Host, appConfig.Gateway.Port, c.ServerVersion())
	return c, nil
}

// printJSON writes one value per line to stdout.
func printJSON(v interface{}) error {
	return json.NewEncoder(os.Stdout).Encode(v)
}

// contractFromFlags builds a contract for symbol, overriding the stock
// defaults with any flag that was set.
func contractFromFlags(symbol string, f *contractFlags) models.MContract {
	c := models.Stock(symbol)
	if f.secType != "" {
		c.SecurityType = models.SecurityType(f.secType)
	}
	if f.exchange != "" {
		c.Exchange = f.exchange
	}
	if f.currency != "" {
		c.Currency = f.currency
	}
	c.ContractID = f.conID
	c.PrimaryExchange = f.primaryExchange
	return c
}

type contractFlags struct {
	secType         string
	exchange        string
	primaryExchange string
	currency        string
	conID           int32
}

func (f *contractFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.secType, "sec-type", "", "security type (default STK)")
	cmd.Flags().StringVar(&f.exchange, "exchange", "", "exchange (default SMART)")
	cmd.Flags().StringVar(&f.primaryExchange, "primary-exchange", "", "primary exchange")
	cmd.Flags().StringVar(&f.currency, "currency", "", "currency (default USD)")
	cmd.Flags().Int32Var(&f.conID, "conid", 0, "contract id")
}

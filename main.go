package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chartmcp",
		Short: "MCP server that turns Chart.js configs into image URLs",
		Long: `chartmcp exposes a create_chart_url tool and a chart configuration guide
over the Model Context Protocol. Charts are rendered by QuickChart.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd(), newURLCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	var transport, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(func(c *Config) {
				if cmd.Flags().Changed("transport") {
					c.Transport = transport
				}
				if cmd.Flags().Changed("addr") {
					c.Addr = addr
				}
			})
			if err != nil {
				return err
			}

			logger := newLogger(os.Stderr, cfg.LogLevel)
			client, err := cfg.NewChartClient()
			if err != nil {
				return err
			}
			srv := NewServer(NewBuilder(client, logger), logger)

			if cfg.Transport == TransportHTTP {
				ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer cancel()
				return serveHTTP(ctx, srv, cfg.Addr, logger)
			}
			return serveStdio(srv, logger)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", TransportStdio, "Transport: stdio or http (env CHART_MCP_TRANSPORT)")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address for the http transport (env CHART_MCP_ADDR)")
	return cmd
}

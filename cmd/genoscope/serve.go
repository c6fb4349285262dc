// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/genoscope/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search pipeline over HTTP",
	Long: `Serve starts an HTTP server with these endpoints:

  GET /api/v1/search?q=<question>&max_results=<n>
  GET /api/v1/history?q=<text>&limit=<n>
  GET /api/v1/history/<query-id>
  GET /healthz
  GET /metrics

A search where every database failed answers 503 with the full result set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("no-history", false, "do not record queries")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	noHistory, _ := cmd.Flags().GetBool("no-history")
	a, err := newApp(!noHistory)
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.engine()
	if err != nil {
		return err
	}

	var hist api.HistoryReader
	if a.history != nil {
		hist = a.history
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewHandler(engine, hist, a.metrics, a.log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return api.Serve(ctx, a.cfg.Server.Addr, router, a.log)
}

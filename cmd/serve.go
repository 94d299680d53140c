// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prjemian/cs800sim/internal/controller"
	"github.com/prjemian/cs800sim/internal/dashboard"
	"github.com/spf13/cobra"
)

var (
	serveCommandAddr   string
	serveDashboard     bool
	serveDashboardAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulated cryostream controller",
	Long: `Start the simulated CS800 controller: the identity broadcaster
(port 30303), the status broadcaster (port 30304), and the command
receiver (port 30305), driving the phase state machine described in
spec section 4.4.

Runs until interrupted (SIGINT/SIGTERM).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveCommandAddr, "command-addr", ":30305", "address the command receiver binds")
	serveCmd.Flags().BoolVar(&serveDashboard, "dashboard", false, "serve a read-only WebSocket status mirror")
	serveCmd.Flags().StringVar(&serveDashboardAddr, "dashboard-addr", ":8080", "address the dashboard HTTP server binds")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	ctrl, err := controller.New(controller.Options{
		CommandAddr: serveCommandAddr,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("starting controller: %w", err)
	}
	defer ctrl.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if serveDashboard {
		hub := dashboard.NewHub(logger)
		mux := http.NewServeMux()
		mux.Handle("/status", hub)
		srv := &http.Server{Addr: serveDashboardAddr, Handler: mux}

		go dashboard.Watch(ctx, ctrl.Memory, hub, time.Second)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("dashboard server error", "err", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logger.Info("dashboard listening", "addr", serveDashboardAddr)
	}

	logger.Info("cs800sim serving",
		"identity_port", 30303, "status_port", 30304, "command_addr", serveCommandAddr)

	if err := ctrl.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("controller stopped: %w", err)
	}
	return nil
}

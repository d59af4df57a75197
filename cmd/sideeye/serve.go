package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/olegrjumin/sideeye/internal/httpapi"
	"github.com/olegrjumin/sideeye/internal/render"
	"github.com/olegrjumin/sideeye/internal/service"
)

type serveFlags struct {
	port        int
	bridgePort  int
	noBridge    bool
	browsers    int
	bridgeRate  float64
	renderQueue int
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the loopback browser bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = f.port
			}
			if cmd.Flags().Changed("bridge-port") {
				a.cfg.BridgePort = f.bridgePort
			}
			return a.runServe(f)
		},
	}

	cmd.Flags().IntVar(&f.port, "port", 8080, "HTTP API port (overrides PORT)")
	cmd.Flags().IntVar(&f.bridgePort, "bridge-port", 17373, "first port tried by the bridge (overrides BRIDGE_PORT)")
	cmd.Flags().BoolVar(&f.noBridge, "no-bridge", false, "do not start the browser bridge")
	cmd.Flags().IntVar(&f.browsers, "browsers", 2, "headless browsers used by rendered scans")
	cmd.Flags().IntVar(&f.renderQueue, "render-queue", 16, "rendered scans allowed to wait for a browser")
	cmd.Flags().Float64Var(&f.bridgeRate, "bridge-rate", 50, "findings accepted per second by the bridge, 0 = unlimited")
	return cmd
}

func (a *app) runServe(f serveFlags) error {
	logger := a.logger

	// Browsers start on the first rendered scan; bursts wait in the queue
	renderer := render.NewQueue(render.Options{PoolSize: f.browsers, Timeout: a.cfg.RenderTimeout, UserAgent: a.cfg.UserAgent}, f.renderQueue)
	defer renderer.Close()

	svc := a.newService(service.WithRenderer(renderer))

	addr := fmt.Sprintf(":%d", a.cfg.Port)
	server := httpapi.NewServer(addr, logger, svc)

	var bridge *http.Server
	if !f.noBridge {
		ln, err := httpapi.Listen(a.cfg.BridgeHost, a.cfg.BridgePort, a.cfg.BridgePortAttempts)
		if err != nil {
			return fmt.Errorf("start bridge: %w", err)
		}
		bridge = httpapi.NewBridgeServer(logger, svc, httpapi.BridgeOptions{Rate: rate.Limit(f.bridgeRate), Burst: 10})

		logger.Info("Browser bridge listening", "addr", "http://"+ln.Addr().String(), "routes", "/api/health,/api/finding")
		go func() {
			if err := bridge.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Bridge error", "error", err)
			}
		}()
	}

	// Channel to listen for OS signals (Ctrl+C, kill, etc.)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", a.cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
	case err := <-serveErr:
		logger.Error("Server error", "error", err)
		return err
	}
	logger.Info("Shutting down server...")

	// Create a context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if bridge != nil {
		if err := bridge.Shutdown(ctx); err != nil {
			logger.Error("Bridge forced to shutdown", "error", err)
		}
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return err
	}

	logger.Info("Server stopped gracefully", "findings", svc.Store().Len())
	return nil
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"auction-house/internal/scheduler"
	"auction-house/internal/server"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ServeOptions holds flags for the serve command
type ServeOptions struct {
	*RootOptions
	Seed bool
}

// NewServeCommand creates the serve command
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and the expiry scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "create sample items and auctions on startup")

	return cmd
}

// runServe serves until ctx is cancelled, then drains in-flight requests
// within the shutdown timeout
func runServe(ctx context.Context, opts *ServeOptions) error {
	cfg := opts.Config
	clock := utils.SystemClock{}

	a, err := newApp(ctx, cfg, clock)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			utils.Error("serve: close failed", map[string]any{"error": err.Error()})
		}
	}()

	if opts.Seed {
		if err := seed(ctx, a, clock); err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.ServeAddress,
		Handler: server.SetupRouter(a.services()),
	}
	sched := scheduler.New(a.machine, cfg.SweepInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Info("serve: starting auction server", map[string]any{"address": cfg.ServeAddress})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.Info("serve: shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

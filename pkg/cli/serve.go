package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/cli/config"
	controller "github.com/m-mizutani/drover/pkg/controller/http"
	lambdactl "github.com/m-mizutani/drover/pkg/controller/lambda"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/infra/account"
	"github.com/m-mizutani/drover/pkg/infra/dynamo"
	"github.com/m-mizutani/drover/pkg/infra/ec2"
	"github.com/m-mizutani/drover/pkg/infra/route53"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		awsCfg    config.AWS
	)

	flags := append(serverCfg.Flags(), awsCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start a local event endpoint for the repository's functions",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting drover local event server",
				slog.String("addr", serverCfg.Addr),
			)

			cfg, err := awsCfg.Configure(ctx)
			if err != nil {
				return err
			}

			// Wire the host-record function against real AWS clients so
			// locally posted events behave like EventBridge deliveries
			settings := model.LoadSettings()
			recordsUC := usecase.NewRecords(
				settings,
				account.NewClient(cfg),
				route53.NewClient(cfg),
				dynamo.NewRecordStore(cfg, settings.TableName),
				ec2.NewWithCredentials,
			)
			handler := lambdactl.NewHandler(recordsUC)

			server, err := controller.NewServer(
				ctx,
				controller.WithAddr(serverCfg.Addr),
				controller.WithFunction("update-route53-host-records", handler),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}

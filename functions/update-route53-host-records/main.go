package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/m-mizutani/ctxlog"
	lambdactl "github.com/m-mizutani/drover/pkg/controller/lambda"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/infra/account"
	"github.com/m-mizutani/drover/pkg/infra/dynamo"
	"github.com/m-mizutani/drover/pkg/infra/ec2"
	"github.com/m-mizutani/drover/pkg/infra/route53"
	"github.com/m-mizutani/drover/pkg/usecase"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("Failed to load AWS config", "error", err)
		os.Exit(1)
	}

	settings := model.LoadSettings()
	recordsUC := usecase.NewRecords(
		settings,
		account.NewClient(cfg),
		route53.NewClient(cfg),
		dynamo.NewRecordStore(cfg, settings.TableName),
		ec2.NewWithCredentials,
	)
	handler := lambdactl.NewHandler(recordsUC)

	awslambda.Start(func(ctx context.Context, event events.CloudWatchEvent) error {
		ctx = ctxlog.With(ctx, logger)
		return handler.HandleEvent(ctx, event)
	})
}

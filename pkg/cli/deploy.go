package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/domain/types"
	lambdainfra "github.com/m-mizutani/drover/pkg/infra/lambda"
	slackinfra "github.com/m-mizutani/drover/pkg/infra/slack"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdDeploy() *cli.Command {
	var (
		awsCfg    config.AWS
		deployCfg config.Deploy
		slackCfg  config.Slack
	)

	flags := append(awsCfg.Flags(), deployCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:      "deploy",
		Aliases:   []string{"d"},
		Usage:     "Package a function directory and push it to Lambda",
		ArgsUsage: "<function-name>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return cli.Exit("USAGE: drover deploy <function-name>", 1)
			}
			name := c.Args().First()

			cfg, err := awsCfg.Configure(ctx)
			if err != nil {
				return err
			}

			opts := []usecase.DeployOption{}
			if slackCfg.WebhookURL != "" {
				opts = append(opts, usecase.WithNotifier(slackinfra.NewNotifier(slackCfg.WebhookURL)))
			}

			uc := usecase.NewDeploy(
				lambdainfra.NewClient(cfg, lambdainfra.WithPublish(deployCfg.Publish)),
				deployCfg.FunctionsDir,
				opts...,
			)

			result, err := uc.Deploy(ctx, name)
			if err != nil {
				if goerr.HasTag(err, types.ErrTagNotFound) {
					return cli.Exit(fmt.Sprintf("unknown function: %s", name), 2)
				}
				return err
			}

			ctxlog.From(ctx).Info("Deploy complete",
				"function", result.FunctionName,
				"version", result.Version,
				"sha256", result.CodeSHA256,
			)
			return nil
		},
	}
}

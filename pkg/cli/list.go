package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/drover/pkg/cli/config"
	lambdainfra "github.com/m-mizutani/drover/pkg/infra/lambda"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdList() *cli.Command {
	var (
		awsCfg    config.AWS
		deployCfg config.Deploy
	)

	flags := append(awsCfg.Flags(), deployCfg.Flags()...)

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List local functions with their remote state",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := awsCfg.Configure(ctx)
			if err != nil {
				return err
			}

			uc := usecase.NewDeploy(lambdainfra.NewClient(cfg), deployCfg.FunctionsDir)

			statuses, err := uc.List(ctx)
			if err != nil {
				return err
			}

			deployed := color.New(color.FgGreen).SprintFunc()
			missing := color.New(color.FgYellow).SprintFunc()

			for _, status := range statuses {
				if status.Remote == nil {
					fmt.Printf("%s  %s\n", missing("not deployed"), status.Name)
					continue
				}
				fmt.Printf("%s  %s  runtime=%s  modified=%s  size=%d\n",
					deployed("deployed"),
					status.Name,
					status.Remote.Runtime,
					status.Remote.LastModified,
					status.Remote.CodeSize,
				)
			}
			return nil
		},
	}
}

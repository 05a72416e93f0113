package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/domain/types"
	lambdainfra "github.com/m-mizutani/drover/pkg/infra/lambda"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdInvoke() *cli.Command {
	var (
		awsCfg    config.AWS
		deployCfg config.Deploy
		eventFile string
	)

	flags := append(awsCfg.Flags(), deployCfg.Flags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "event",
			Aliases:     []string{"e"},
			Usage:       "Path to a JSON event file (default: empty object)",
			Destination: &eventFile,
			Sources:     cli.EnvVars("DROVER_EVENT"),
		},
	)

	return &cli.Command{
		Name:      "invoke",
		Aliases:   []string{"i"},
		Usage:     "Invoke the deployed function with a JSON event",
		ArgsUsage: "<function-name>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return cli.Exit("USAGE: drover invoke <function-name>", 1)
			}
			name := c.Args().First()

			payload := []byte("{}")
			if eventFile != "" {
				data, err := os.ReadFile(eventFile)
				if err != nil {
					return goerr.Wrap(err, "failed to read event file", goerr.V("path", eventFile))
				}
				payload = data
			}

			cfg, err := awsCfg.Configure(ctx)
			if err != nil {
				return err
			}

			uc := usecase.NewDeploy(lambdainfra.NewClient(cfg), deployCfg.FunctionsDir)

			result, err := uc.Invoke(ctx, name, payload)
			if err != nil {
				if goerr.HasTag(err, types.ErrTagNotFound) {
					return cli.Exit(fmt.Sprintf("unknown function: %s", name), 2)
				}
				return err
			}

			logger := ctxlog.From(ctx)
			logger.Debug("Function log tail", "log", result.LogTail)

			fmt.Println(string(result.Payload))

			if result.Failed() {
				return goerr.New("function returned an error",
					goerr.V("function", name),
					goerr.V("function_error", result.FunctionError))
			}

			logger.Info("Invocation complete",
				"function", name,
				"status_code", result.StatusCode,
				"duration_ms", result.Duration.Milliseconds(),
			)
			return nil
		},
	}
}

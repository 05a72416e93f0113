package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdPackage() *cli.Command {
	var (
		deployCfg config.Deploy
		output    string
	)

	flags := append(deployCfg.Flags(),
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output path of the zip archive (default: <function-name>.zip)",
			Destination: &output,
			Sources:     cli.EnvVars("DROVER_OUTPUT"),
		},
	)

	return &cli.Command{
		Name:      "package",
		Aliases:   []string{"p"},
		Usage:     "Build a function archive without deploying",
		ArgsUsage: "<function-name>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return cli.Exit("USAGE: drover package <function-name>", 1)
			}
			name := c.Args().First()

			if output == "" {
				output = name + ".zip"
			}

			// Packaging is purely local, no function client needed
			uc := usecase.NewDeploy(nil, deployCfg.FunctionsDir)

			artifact, err := uc.Package(ctx, name, output)
			if err != nil {
				if goerr.HasTag(err, types.ErrTagNotFound) {
					return cli.Exit(fmt.Sprintf("unknown function: %s", name), 2)
				}
				return err
			}

			ctxlog.From(ctx).Info("Package complete",
				"archive", artifact.Path,
				"file_count", len(artifact.Files),
				"size_bytes", artifact.Size,
				"sha256", artifact.SHA256,
			)
			return nil
		},
	}
}

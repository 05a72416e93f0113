package config

import "github.com/urfave/cli/v3"

// Deploy holds function deployment configuration
type Deploy struct {
	FunctionsDir string
	Publish      bool
}

// Flags returns CLI flags for deployment configuration
func (c *Deploy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "functions-dir",
			Usage:       "Directory containing one subdirectory per function",
			Value:       "functions",
			Destination: &c.FunctionsDir,
			Sources:     cli.EnvVars("DROVER_FUNCTIONS_DIR"),
		},
		&cli.BoolFlag{
			Name:        "publish",
			Usage:       "Publish a new version on every deploy",
			Value:       false,
			Destination: &c.Publish,
			Sources:     cli.EnvVars("DROVER_PUBLISH"),
		},
	}
}

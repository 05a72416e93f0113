package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// DeployUseCase defines operations for packaging and deploying functions
type DeployUseCase interface {
	// Deploy packages the named function directory and pushes the archive
	// to the function service
	Deploy(ctx context.Context, name string) (*model.DeployResult, error)

	// Package builds the function archive at the given output path without
	// deploying
	Package(ctx context.Context, name, outputPath string) (*model.Artifact, error)

	// List enumerates local function directories with their remote state
	List(ctx context.Context) ([]model.FunctionStatus, error)

	// Invoke executes the deployed function with a JSON event payload
	Invoke(ctx context.Context, name string, payload []byte) (*model.InvokeResult, error)
}

// RecordsUseCase defines the host-record maintenance operation driven by
// EC2 state-change events
type RecordsUseCase interface {
	// HandleStateChange registers or unregisters DNS records for the
	// instance named by the event
	HandleStateChange(ctx context.Context, event *model.StateChangeEvent) error
}

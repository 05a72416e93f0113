package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type deployUseCase struct {
	functions interfaces.FunctionClient
	notifier  interfaces.Notifier
	baseDir   string
}

// DeployOption configures the deploy use case
type DeployOption func(*deployUseCase)

// WithNotifier attaches a deployment notifier
func WithNotifier(n interfaces.Notifier) DeployOption {
	return func(uc *deployUseCase) {
		uc.notifier = n
	}
}

// NewDeploy creates a new instance of DeployUseCase. baseDir is the
// directory containing one subdirectory per function.
func NewDeploy(functions interfaces.FunctionClient, baseDir string, opts ...DeployOption) interfaces.DeployUseCase {
	uc := &deployUseCase{
		functions: functions,
		baseDir:   baseDir,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// functionDir validates that the named function exists locally and returns
// its directory
func (uc *deployUseCase) functionDir(name string) (string, error) {
	dir := filepath.Join(uc.baseDir, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", goerr.New("unknown function: no such function directory",
			goerr.V("function", name),
			goerr.V("dir", dir),
			goerr.T(types.ErrTagNotFound))
	}
	return dir, nil
}

// Deploy packages the function directory into a temporary archive, pushes
// it to Lambda, and removes the archive regardless of the outcome
func (uc *deployUseCase) Deploy(ctx context.Context, name string) (*model.DeployResult, error) {
	logger := ctxlog.From(ctx)

	dir, err := uc.functionDir(name)
	if err != nil {
		return nil, err
	}

	manifest, err := model.LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "drover-*.zip")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary archive")
	}
	if err := tmp.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to close temporary archive")
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			logger.Warn("Failed to remove temporary archive",
				"path", tmp.Name(),
				"error", err,
			)
		}
	}()

	artifact, err := buildArchive(dir, tmp.Name(), manifest.Package.Exclude)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to package function",
			goerr.V("function", name), goerr.V("dir", dir))
	}

	logger.Info("Packaged function",
		"function", manifest.Name,
		"archive", artifact.Path,
		"file_count", len(artifact.Files),
		"size_bytes", artifact.Size,
		"sha256", artifact.SHA256,
	)

	zipData, err := os.ReadFile(artifact.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read packaged archive", goerr.V("path", artifact.Path))
	}

	result, err := uc.functions.UpdateCode(ctx, manifest.Name, zipData)
	uc.notify(ctx, result, err)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update function code",
			goerr.V("function", manifest.Name))
	}

	if result.CodeSHA256 != "" && result.CodeSHA256 != artifact.SHA256 {
		return nil, goerr.New("deployed code digest does not match local archive",
			goerr.V("function", manifest.Name),
			goerr.V("local", artifact.SHA256),
			goerr.V("remote", result.CodeSHA256))
	}

	logger.Info("Deployed function",
		"function", result.FunctionName,
		"arn", result.ARN,
		"version", result.Version,
		"code_size", result.CodeSize,
		"last_modified", result.LastModified,
	)

	return result, nil
}

// Package builds the function archive at outputPath without deploying
func (uc *deployUseCase) Package(ctx context.Context, name, outputPath string) (*model.Artifact, error) {
	dir, err := uc.functionDir(name)
	if err != nil {
		return nil, err
	}

	manifest, err := model.LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	artifact, err := buildArchive(dir, outputPath, manifest.Package.Exclude)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to package function",
			goerr.V("function", name), goerr.V("dir", dir))
	}

	ctxlog.From(ctx).Info("Packaged function",
		"function", manifest.Name,
		"archive", artifact.Path,
		"file_count", len(artifact.Files),
		"size_bytes", artifact.Size,
	)

	return artifact, nil
}

// List enumerates function directories under the base directory with their
// remote state. A function missing remotely is listed with nil Remote.
func (uc *deployUseCase) List(ctx context.Context) ([]model.FunctionStatus, error) {
	entries, err := os.ReadDir(uc.baseDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read functions directory",
			goerr.V("dir", uc.baseDir), goerr.T(types.ErrTagNotFound))
	}

	var statuses []model.FunctionStatus
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(uc.baseDir, entry.Name())
		manifest, err := model.LoadManifest(dir)
		if err != nil {
			return nil, err
		}

		status := model.FunctionStatus{
			Name: manifest.Name,
			Dir:  dir,
		}

		remote, err := uc.functions.GetFunction(ctx, manifest.Name)
		switch {
		case err == nil:
			status.Remote = remote
		case goerr.HasTag(err, types.ErrTagRemoteNotFound):
			// Not deployed yet
		default:
			return nil, goerr.Wrap(err, "failed to get remote function state",
				goerr.V("function", manifest.Name))
		}

		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})

	return statuses, nil
}

// Invoke executes the deployed function with the given JSON payload
func (uc *deployUseCase) Invoke(ctx context.Context, name string, payload []byte) (*model.InvokeResult, error) {
	dir, err := uc.functionDir(name)
	if err != nil {
		return nil, err
	}

	manifest, err := model.LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	result, err := uc.functions.Invoke(ctx, manifest.Name, payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to invoke function",
			goerr.V("function", manifest.Name))
	}

	return result, nil
}

func (uc *deployUseCase) notify(ctx context.Context, result *model.DeployResult, deployErr error) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.NotifyDeploy(ctx, result, deployErr); err != nil {
		ctxlog.From(ctx).Warn("Failed to send deploy notification", "error", err)
	}
}

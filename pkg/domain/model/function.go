package model

import (
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// ManifestFileName is the optional per-function manifest placed in each
// function directory
const ManifestFileName = "function.toml"

// Manifest holds per-function deployment settings loaded from function.toml
type Manifest struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`

	Package struct {
		// Exclude lists glob patterns matched against archive-relative
		// paths and base names. Matching entries are left out of the
		// archive.
		Exclude []string `toml:"exclude"`
	} `toml:"package"`
}

// LoadManifest reads function.toml from the given function directory. A
// missing manifest is not an error: defaults are derived from the
// directory name.
func LoadManifest(dir string) (*Manifest, error) {
	manifest := &Manifest{
		Name: filepath.Base(dir),
	}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return manifest, nil
		}
		return nil, goerr.Wrap(err, "failed to read function manifest",
			goerr.V("dir", dir), goerr.T(types.ErrTagBadManifest))
	}

	if err := toml.Unmarshal(data, manifest); err != nil {
		return nil, goerr.Wrap(err, "failed to parse function manifest",
			goerr.V("dir", dir), goerr.T(types.ErrTagBadManifest))
	}

	if manifest.Name == "" {
		manifest.Name = filepath.Base(dir)
	}

	return manifest, nil
}

// RemoteFunction represents the state of a function as known to Lambda
type RemoteFunction struct {
	Name         string
	ARN          string
	Runtime      string
	CodeSHA256   string
	CodeSize     int64
	LastModified string
}

// FunctionStatus pairs a local function directory with its remote state.
// Remote is nil when the function has not been deployed.
type FunctionStatus struct {
	Name   string
	Dir    string
	Remote *RemoteFunction
}

// InvokeResult represents the outcome of a remote function invocation
type InvokeResult struct {
	StatusCode    int32
	Payload       []byte
	FunctionError string
	LogTail       string
	Duration      time.Duration
}

// Failed reports whether the invocation completed with a function error
func (r *InvokeResult) Failed() bool {
	return r.FunctionError != ""
}

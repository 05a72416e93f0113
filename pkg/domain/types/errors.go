package types

import "github.com/m-mizutani/goerr/v2"

// Error tags used to classify failures across layers. The CLI maps these
// to exit codes.
var (
	// ErrTagNotFound marks errors caused by a local function directory or
	// tracked item that does not exist
	ErrTagNotFound = goerr.NewTag("not_found")

	// ErrTagRemoteNotFound marks errors caused by a Lambda function that
	// does not exist remotely. Kept apart from ErrTagNotFound so a failed
	// remote lookup is never reported as an unknown local function.
	ErrTagRemoteNotFound = goerr.NewTag("remote_not_found")

	// ErrTagBadManifest marks errors caused by an unreadable or invalid
	// function manifest
	ErrTagBadManifest = goerr.NewTag("bad_manifest")
)

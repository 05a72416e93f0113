package model

// Artifact represents a packaged function archive
type Artifact struct {
	Path   string   // Path to the zip file
	Files  []string // Archive-relative paths of packaged files
	Size   int64    // Total uncompressed size in bytes
	SHA256 string   // Base64-encoded SHA256 of the archive, as Lambda reports it
}

// DeployResult represents the outcome of a function code update
type DeployResult struct {
	FunctionName string
	ARN          string
	Version      string
	CodeSHA256   string
	CodeSize     int64
	LastModified string
}

package types

// Version is the application version, overridden at build time via ldflags
var Version = "v0.1.0"

// ServiceName identifies this application in health responses and logs
const ServiceName = "drover"

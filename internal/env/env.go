package env

// Set at build time with -ldflags "-X github.com/ostafen/blkpart/internal/env.Version=...".
var (
	AppName    = "blkpart"
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

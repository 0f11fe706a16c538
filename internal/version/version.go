// Package version carries build metadata stamped in by the linker.
package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/cargoquote/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/cargoquote/internal/version.Commit=abc123
//	  -X github.com/soyeahso/cargoquote/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("cargoquote %s (commit: %s, built: %s, %s/%s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies the bot to peers, e.g. "cargoquote/1.2.0".
func UserAgent() string { return "cargoquote/" + Version }

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}

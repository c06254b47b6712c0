// Package version exposes build metadata set through ldflags:
//
//	go build -ldflags "-X github.com/smazurov/hwscan/internal/version.Version=v1.2.0"
package version

import (
	"fmt"
	"runtime"

	"github.com/smazurov/hwscan/internal/abi"
)

var (
	// Version is the application version, set via ldflags during build.
	Version = "dev"
	// GitCommit is the git commit hash, set via ldflags during build.
	GitCommit = "unknown"
	// BuildDate is the build timestamp, set via ldflags during build.
	BuildDate = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Version       string `json:"version" example:"v1.2.0" doc:"Release version"`
	GitCommit     string `json:"git_commit" doc:"Source revision"`
	BuildDate     string `json:"build_date" doc:"Build timestamp"`
	LayoutVersion uint32 `json:"layout_version" example:"1" doc:"Scan result layout version"`
	GoVersion     string `json:"go_version" doc:"Go toolchain version"`
	Platform      string `json:"platform" example:"linux/amd64" doc:"Target OS and architecture"`
}

// Get returns version and build information.
func Get() Info {
	return Info{
		Version:       Version,
		GitCommit:     GitCommit,
		BuildDate:     BuildDate,
		LayoutVersion: abi.Version,
		GoVersion:     runtime.Version(),
		Platform:      fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns the application version string.
func String() string {
	return Version
}

// Package buildinfo exposes version metadata injected at link time.
//
//	go build -ldflags "-X github.com/dmitrijs2005/iskr/internal/buildinfo.buildVersion=v1.2.0 \
//	  -X github.com/dmitrijs2005/iskr/internal/buildinfo.buildDate=2026-10-14 \
//	  -X github.com/dmitrijs2005/iskr/internal/buildinfo.buildCommit=abc123" ./cmd/client
package buildinfo

import (
	"fmt"
	"io"
)

const notAvailable = "N/A"

var (
	buildVersion = notAvailable
	buildDate    = notAvailable
	buildCommit  = notAvailable
)

// Info is a snapshot of the link-time build variables.
type Info struct {
	Version string
	Date    string
	Commit  string
}

// Get returns the current build metadata, substituting "N/A" for empty values.
func Get() Info {
	return Info{
		Version: orNA(buildVersion),
		Date:    orNA(buildDate),
		Commit:  orNA(buildCommit),
	}
}

// PrintBuildData writes the build metadata to w, one value per line.
func PrintBuildData(w io.Writer) {
	info := Get()
	fmt.Fprintf(w, "Build version: %s\n", info.Version)
	fmt.Fprintf(w, "Build date: %s\n", info.Date)
	fmt.Fprintf(w, "Build commit: %s\n", info.Commit)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

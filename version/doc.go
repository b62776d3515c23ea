// Package version reports the srag build.
//
// Version and Commit are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/srag/version.Version=0.3.0" ./cmd/srag
//
// When unset, the commit falls back to the VCS stamp of the binary.
package version

package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = ""
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Dirty     bool   `json:"dirty,omitempty" yaml:"dirty,omitempty"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// Get collects build information from the linker variables and the
// embedded build info.
func Get() Info {
	info := Info{Version: Version, Commit: Commit}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// Short renders info as version[-commit][-dirty] with the commit cut to
// seven characters.
func (i Info) Short() string {
	if i.Commit == "" {
		return i.Version
	}
	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if i.Dirty {
		return fmt.Sprintf("%s-%s-dirty", i.Version, commit)
	}
	return fmt.Sprintf("%s-%s", i.Version, commit)
}

// String includes the Go toolchain when known.
func (i Info) String() string {
	if i.GoVersion == "" {
		return i.Short()
	}
	return fmt.Sprintf("%s (%s)", i.Short(), i.GoVersion)
}

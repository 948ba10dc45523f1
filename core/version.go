package core

import (
	"fmt"
	"runtime"
)

type VersionInfo struct {
	Version  string `json:"version"`
	Revision string `json:"revision"`
	Build    string `json:"build"`
}

var Version = VersionInfo{Version: "dev"}

func SetVersion(version, revision, build string) {
	if version == "" {
		version = "dev"
	}
	Version = VersionInfo{
		Version:  version,
		Revision: revision,
		Build:    build,
	}
}

// UserAgent is sent in the Server header of the spectator server.
func (v VersionInfo) UserAgent() string {
	return fmt.Sprintf("turandot/%s %s (%s; %s)", v.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func (v VersionInfo) String() string {
	if v.Revision == "" {
		return v.Version
	}
	return fmt.Sprintf("%s (%s, %s)", v.Version, v.Revision, v.Build)
}

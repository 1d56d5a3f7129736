/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo resolves the version of go-cachemetrics linked into the running binary.
package libinfo

import (
	"debug/buildinfo"
	"regexp"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const moduleName = "github.com/acronis/go-cachemetrics"

// PrometheusLibVersionLabel is a const label added to all exported metrics.
const PrometheusLibVersionLabel = "go_cachemetrics_version"

// AddPrometheusLibVersionLabel returns a copy of labels with the library version label added.
func AddPrometheusLibVersionLabel(labels prometheus.Labels) prometheus.Labels {
	labelsCopy := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		labelsCopy[k] = v
	}
	labelsCopy[PrometheusLibVersionLabel] = GetLibVersion()
	return labelsCopy
}

var (
	libVersion     string
	libVersionOnce sync.Once
)

// GetLibVersion returns the module version from the build info or "v0.0.0" if it's unknown.
func GetLibVersion() string {
	libVersionOnce.Do(func() {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			libVersion = extractLibVersion(buildInfo, moduleName)
		}
		if libVersion == "" || libVersion == "(devel)" {
			libVersion = "v0.0.0"
		}
	})
	return libVersion
}

// extractLibVersion looks for the module ("name" or "name/vX") among the dependencies
// and, for the cachemetrics binary itself, in the main module.
func extractLibVersion(buildInfo *buildinfo.BuildInfo, modName string) string {
	if buildInfo == nil {
		return ""
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(modName) + `(/v[0-9]+)?$`)
	if re.MatchString(buildInfo.Main.Path) {
		return buildInfo.Main.Version
	}
	for _, dep := range buildInfo.Deps {
		if re.MatchString(dep.Path) {
			return dep.Version
		}
	}
	return ""
}

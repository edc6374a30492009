package duckdb

import (
	"fmt"
	"strings"
)

// Version represents the DuckDB version information
type Version struct {
	Major      int
	Minor      int
	Patch      int
	VersionStr string
}

// String returns the version as a string
func (v Version) String() string {
	if v.VersionStr != "" {
		return v.VersionStr
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast checks if the version is at least the given major, minor, patch
func (v Version) AtLeast(major, minor, patch int) bool {
	if v.Major > major {
		return true
	}
	if v.Major < major {
		return false
	}
	if v.Minor > minor {
		return true
	}
	if v.Minor < minor {
		return false
	}
	return v.Patch >= patch
}

// GetDuckDBVersion returns the version of the loaded DuckDB library.
func GetDuckDBVersion() (Version, error) {
	if err := ensureLib(); err != nil {
		return Version{}, err
	}

	versionStr := duckdbLibVersion()
	v := Version{VersionStr: versionStr}

	// The library reports either "v1.2.0" or a source id like
	// "v0.8.0-1014-gf41c0e9a4e"; take the leading version triple.
	if strings.HasPrefix(versionStr, "v") {
		lead := strings.SplitN(versionStr[1:], "-", 2)[0]
		fmt.Sscanf(lead, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	}
	return v, nil
}

// VersionString returns the DuckDB version as a string.
func VersionString() string {
	v, err := GetDuckDBVersion()
	if err != nil {
		return "unknown"
	}
	return v.String()
}

package model

import (
	"strconv"
	"strings"
)

const versionPrefix = "v"

// ParseVersion extracts the numeric part of a version string such as "v12".
// Leading digits after the prefix are used, so "v3-hotfix" parses as 3.
func ParseVersion(version string) (int, bool) {
	s := strings.TrimPrefix(strings.TrimSpace(version), versionPrefix)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatVersion renders a version number as a version string
func FormatVersion(n int) string {
	return versionPrefix + strconv.Itoa(n)
}

// NextVersion returns the version following latest. An empty or non-numeric
// latest version restarts numbering at v1.
func NextVersion(latest string) string {
	n, ok := ParseVersion(latest)
	if !ok {
		return FormatVersion(1)
	}
	return FormatVersion(n + 1)
}

// CompareVersions orders two version strings by their numeric part.
// Non-numeric versions sort before numeric ones.
func CompareVersions(a, b string) int {
	na, okA := ParseVersion(a)
	nb, okB := ParseVersion(b)
	switch {
	case !okA && !okB:
		return strings.Compare(a, b)
	case !okA:
		return -1
	case !okB:
		return 1
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}

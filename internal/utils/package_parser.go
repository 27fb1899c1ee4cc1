package utils

import (
	"regexp"
	"strings"
)

var (
	versionDigits = regexp.MustCompile(`\d+`)
	versionLike   = regexp.MustCompile(`^[vV]?\d[\w.+~:-]*$`)
)

// PackageParser splits the "name version" convention used by affected_package.
type PackageParser struct{}

func NewPackageParser() *PackageParser {
	return &PackageParser{}
}

// Split returns the package name and version. The version is the last
// whitespace separated word when it looks like a version; otherwise the
// whole text is the name and the version is empty.
func (pp *PackageParser) Split(affected string) (name, version string) {
	fields := strings.Fields(affected)
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) == 1 {
		return fields[0], ""
	}

	last := fields[len(fields)-1]
	if !versionLike.MatchString(last) {
		return strings.Join(fields, " "), ""
	}
	return strings.Join(fields[:len(fields)-1], " "), pp.NormalizeVersion(last)
}

// NormalizeVersion strips surrounding space and a leading v / version prefix.
func (pp *PackageParser) NormalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	version = strings.TrimPrefix(version, "version")
	version = strings.TrimPrefix(version, "Version")
	version = strings.TrimPrefix(version, "v")
	version = strings.TrimPrefix(version, "V")
	return strings.TrimSpace(version)
}

// CompareVersions compares dotted versions numerically, part by part.
func (pp *PackageParser) CompareVersions(v1, v2 string) int {
	parts1 := strings.Split(pp.NormalizeVersion(v1), ".")
	parts2 := strings.Split(pp.NormalizeVersion(v2), ".")

	maxLen := len(parts1)
	if len(parts2) > maxLen {
		maxLen = len(parts2)
	}

	for i := 0; i < maxLen; i++ {
		var num1, num2 int

		if i < len(parts1) {
			num1 = pp.parsePart(parts1[i])
		}
		if i < len(parts2) {
			num2 = pp.parsePart(parts2[i])
		}

		if num1 > num2 {
			return 1
		}
		if num1 < num2 {
			return -1
		}
	}

	return 0
}

func (pp *PackageParser) parsePart(part string) int {
	match := versionDigits.FindString(part)
	if match == "" {
		return 0
	}

	var result int
	for _, ch := range match {
		result = result*10 + int(ch-'0')
	}
	return result
}

package plugin

import "fmt"

// Version is a three-integer semantic version triplet, used for both a
// plugin's own version and the framework's minimum-version requirement.
// Three-integer comparison is simple enough that pulling in
// golang.org/x/mod/semver for it would be unnecessary weight, so
// comparison is implemented directly.
type Version struct {
	Major uint16
	Minor uint16
	Patch uint16
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmp(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmp(v.Minor, other.Minor)
	default:
		return cmp(v.Patch, other.Patch)
	}
}

// AtLeast reports whether v >= min.
func (v Version) AtLeast(min Version) bool {
	return v.Compare(min) >= 0
}

func cmp(a, b uint16) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ParseVersion parses a "major.minor.patch" string. Used to compare the
// framework's own dotted version constant against a plugin's
// MinFrameworkVersion field.
func ParseVersion(s string) (Version, error) {
	var v Version
	n, err := fmt.Sscanf(s, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	if err != nil || n != 3 {
		return Version{}, fmt.Errorf("plugin: invalid version string %q", s)
	}
	return v, nil
}

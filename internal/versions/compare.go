package versions

import "github.com/Masterminds/semver/v3"

// Change classifies how a published version moved
type Change int

// Version change kinds
const (
	Unchanged Change = iota
	Bumped
	Downgraded
	// Replaced means the versions differ but are not both semantic versions
	Replaced
)

// String implements fmt.Stringer
func (c Change) String() string {
	switch c {
	case Bumped:
		return "bumped"
	case Downgraded:
		return "downgraded"
	case Replaced:
		return "replaced"
	default:
		return "unchanged"
	}
}

// Classify compares the previously stored version with the newly published
// one. Semantic versions are compared by precedence, so "v1.0.0" and "1.0.0"
// are unchanged.
func Classify(previous, published string) Change {
	if previous == published {
		return Unchanged
	}

	prev, errPrev := semver.NewVersion(previous)
	next, errNext := semver.NewVersion(published)
	if errPrev != nil || errNext != nil {
		return Replaced
	}

	switch next.Compare(prev) {
	case 1:
		return Bumped
	case -1:
		return Downgraded
	default:
		return Unchanged
	}
}

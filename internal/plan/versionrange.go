package plan

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Range is a single contiguous interval of versions, the intersection
// primitive the planner's Step A needs to decide whether a set of
// pragmas admits any version at all. Its shape — a min/max pair with
// independent inclusivity flags — mirrors the internal representation
// the teacher's vendored Masterminds/semver uses for its own range
// constraints (rangeConstraint.min/max/includeMin/includeMax), adapted
// here into an explicit intersectable value rather than a predicate,
// since the planner needs to test emptiness directly.
type Range struct {
	Min     *semver.Version
	MinIncl bool
	Max     *semver.Version
	MaxIncl bool
}

// unbounded is the range matching every version.
func unbounded() Range { return Range{} }

// ParseRange parses one pragma string (possibly several space-
// separated comparator clauses, ANDed together, or a hyphen range) into
// a Range.
func ParseRange(pragma string) (Range, error) {
	fields := strings.Fields(pragma)
	r := unbounded()

	for i := 0; i < len(fields); i++ {
		tok := fields[i]

		if i+2 < len(fields) && fields[i+1] == "-" {
			lo, err := semver.NewVersion(fields[i])
			if err != nil {
				return r, errors.Wrapf(err, "parsing range lower bound %q", fields[i])
			}
			hi, err := semver.NewVersion(fields[i+2])
			if err != nil {
				return r, errors.Wrapf(err, "parsing range upper bound %q", fields[i+2])
			}
			r.tightenMin(lo, true)
			r.tightenMax(hi, true)
			i += 2
			continue
		}

		switch {
		case strings.HasPrefix(tok, "^"):
			v, err := semver.NewVersion(tok[1:])
			if err != nil {
				return r, errors.Wrapf(err, "parsing caret version %q", tok)
			}
			r.tightenMin(v, true)
			r.tightenMax(caretCeiling(v), false)

		case strings.HasPrefix(tok, "~"):
			v, err := semver.NewVersion(tok[1:])
			if err != nil {
				return r, errors.Wrapf(err, "parsing tilde version %q", tok)
			}
			r.tightenMin(v, true)
			r.tightenMax(tildeCeiling(v), false)

		case strings.HasPrefix(tok, ">="):
			v, err := semver.NewVersion(tok[2:])
			if err != nil {
				return r, errors.Wrapf(err, "parsing %q", tok)
			}
			r.tightenMin(v, true)

		case strings.HasPrefix(tok, "<="):
			v, err := semver.NewVersion(tok[2:])
			if err != nil {
				return r, errors.Wrapf(err, "parsing %q", tok)
			}
			r.tightenMax(v, true)

		case strings.HasPrefix(tok, ">"):
			v, err := semver.NewVersion(tok[1:])
			if err != nil {
				return r, errors.Wrapf(err, "parsing %q", tok)
			}
			r.tightenMin(v, false)

		case strings.HasPrefix(tok, "<"):
			v, err := semver.NewVersion(tok[1:])
			if err != nil {
				return r, errors.Wrapf(err, "parsing %q", tok)
			}
			r.tightenMax(v, false)

		case strings.HasPrefix(tok, "="):
			v, err := semver.NewVersion(tok[1:])
			if err != nil {
				return r, errors.Wrapf(err, "parsing %q", tok)
			}
			r.tightenMin(v, true)
			r.tightenMax(v, true)

		default:
			v, err := semver.NewVersion(tok)
			if err != nil {
				return r, errors.Wrapf(err, "parsing version %q", tok)
			}
			r.tightenMin(v, true)
			r.tightenMax(v, true)
		}
	}

	return r, nil
}

// caretCeiling returns the exclusive upper bound of a caret range,
// following the same left-most-nonzero-digit rule as npm semver (which
// solc's own pragma matcher also follows): ^1.2.3 -> <2.0.0,
// ^0.2.3 -> <0.3.0, ^0.0.3 -> <0.0.4.
func caretCeiling(v *semver.Version) *semver.Version {
	switch {
	case v.Major() > 0:
		return semver.New(v.Major()+1, 0, 0, "", "")
	case v.Minor() > 0:
		return semver.New(0, v.Minor()+1, 0, "", "")
	default:
		return semver.New(0, 0, v.Patch()+1, "", "")
	}
}

// tildeCeiling returns the exclusive upper bound of a tilde range:
// ~1.2.3 -> <1.3.0.
func tildeCeiling(v *semver.Version) *semver.Version {
	return semver.New(v.Major(), v.Minor()+1, 0, "", "")
}

// tightenMin raises r.Min to v if v is a stricter (or equally strict
// but less inclusive) lower bound than the current one.
func (r *Range) tightenMin(v *semver.Version, incl bool) {
	if r.Min == nil {
		r.Min, r.MinIncl = v, incl
		return
	}
	switch v.Compare(r.Min) {
	case 1:
		r.Min, r.MinIncl = v, incl
	case 0:
		if !incl {
			r.MinIncl = false
		}
	}
}

// tightenMax lowers r.Max to v if v is a stricter (or equally strict
// but less inclusive) upper bound than the current one.
func (r *Range) tightenMax(v *semver.Version, incl bool) {
	if r.Max == nil {
		r.Max, r.MaxIncl = v, incl
		return
	}
	switch v.Compare(r.Max) {
	case -1:
		r.Max, r.MaxIncl = v, incl
	case 0:
		if !incl {
			r.MaxIncl = false
		}
	}
}

// Intersect returns the intersection of r and o.
func (r Range) Intersect(o Range) Range {
	out := r
	if o.Min != nil {
		out.tightenMin(o.Min, o.MinIncl)
	}
	if o.Max != nil {
		out.tightenMax(o.Max, o.MaxIncl)
	}
	return out
}

// IsEmpty reports whether the range admits no version at all.
func (r Range) IsEmpty() bool {
	if r.Min == nil || r.Max == nil {
		return false
	}
	switch r.Min.Compare(r.Max) {
	case 1:
		return true
	case 0:
		return !(r.MinIncl && r.MaxIncl)
	default:
		return false
	}
}

// Contains reports whether v falls within the range.
func (r Range) Contains(v *semver.Version) bool {
	if r.Min != nil {
		switch v.Compare(r.Min) {
		case -1:
			return false
		case 0:
			if !r.MinIncl {
				return false
			}
		}
	}
	if r.Max != nil {
		switch v.Compare(r.Max) {
		case 1:
			return false
		case 0:
			if !r.MaxIncl {
				return false
			}
		}
	}
	return true
}

// IntersectAll intersects a Range with every pragma string in prags,
// which are first individually parsed and ANDed with each other (a
// file may carry more than one pragma solidity statement).
func IntersectAll(base Range, prags []string) (Range, error) {
	out := base
	for _, p := range prags {
		pr, err := ParseRange(p)
		if err != nil {
			return out, err
		}
		out = out.Intersect(pr)
	}
	return out, nil
}

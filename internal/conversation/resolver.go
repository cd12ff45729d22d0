package conversation

import (
	"strings"

	"github.com/mydailysportsreport/whatsapp-bot/internal/directory"
)

// Resolution classifies the outcome of matching a spoken kid name against a
// parent's known subscribers.
type Resolution int

const (
	// Resolved means exactly one subscriber was picked.
	Resolved Resolution = iota
	// Ambiguous means two or more subscribers exist and the name text did
	// not single one out. The caller must ask which kid is meant.
	Ambiguous
	// NotFound means the parent has no subscribers to match against.
	NotFound
)

func (r Resolution) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// ResolveTarget picks which subscriber an update or unsubscribe applies to.
// Matching is ordered: exact case-insensitive name match, then substring in
// either direction, then — when the parent has exactly one kid — that kid
// regardless of what the name text says. With two or more kids and no name
// match the result is Ambiguous and no mutation may proceed.
func ResolveTarget(candidate string, kids []directory.Subscriber) (directory.Subscriber, Resolution) {
	if len(kids) == 0 {
		return directory.Subscriber{}, NotFound
	}

	name := normalizeName(candidate)

	if name != "" {
		for _, k := range kids {
			if strings.ToLower(k.Name) == name {
				return k, Resolved
			}
		}
		for _, k := range kids {
			known := strings.ToLower(k.Name)
			if strings.Contains(known, name) || strings.Contains(name, known) {
				return k, Resolved
			}
		}
	}

	if len(kids) == 1 {
		return kids[0], Resolved
	}
	return directory.Subscriber{}, Ambiguous
}

// normalizeName case-folds and strips a trailing possessive, so "Tim's" and
// "tim" compare equal.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range []string{"'s", "’s"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	return strings.TrimSpace(s)
}

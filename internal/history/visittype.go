package history

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// VisitType classifies how the user arrived at a page.
type VisitType int

const (
	VisitLink VisitType = iota + 1
	VisitTyped
	VisitBookmark
	VisitEmbed
	VisitRedirectPermanent
	VisitRedirectTemporary
	VisitDownload
	VisitFramedLink
	VisitReload
)

var visitTypeNames = map[VisitType]string{
	VisitLink:              "link",
	VisitTyped:             "typed",
	VisitBookmark:          "bookmark",
	VisitEmbed:             "embed",
	VisitRedirectPermanent: "redirect_permanent",
	VisitRedirectTemporary: "redirect_temporary",
	VisitDownload:          "download",
	VisitFramedLink:        "framed_link",
	VisitReload:            "reload",
}

func (t VisitType) String() string {
	if name, ok := visitTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes t by name.
func (t VisitType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ParseVisitType maps a name such as "link" or "redirect_temporary" to its
// VisitType. Matching ignores case and surrounding space.
func ParseVisitType(name string) (VisitType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range visitTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.Errorf("unknown visit type %q", name)
}

// VisitTypeNames lists every known visit type name, sorted.
func VisitTypeNames() []string {
	names := make([]string, 0, len(visitTypeNames))
	for _, n := range visitTypeNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Policy is the set of visit types that produce a stored visit. Others are
// dropped.
type Policy map[VisitType]bool

// DefaultPolicy records links and typed navigations only.
func DefaultPolicy() Policy {
	return Policy{VisitLink: true, VisitTyped: true}
}

// NewPolicy builds a Policy from visit type names.
func NewPolicy(names []string) (Policy, error) {
	p := make(Policy, len(names))
	for _, n := range names {
		t, err := ParseVisitType(n)
		if err != nil {
			return nil, err
		}
		p[t] = true
	}
	return p, nil
}

// Allows reports whether visits of type t are recorded.
func (p Policy) Allows(t VisitType) bool { return p[t] }

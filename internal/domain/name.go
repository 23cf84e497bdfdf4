// Package domain holds the core value types of the zone data model: names,
// records, staged changes, DNSSEC keys and zone metadata. Nothing in this
// package talks to Consul or the wire protocol; it is pure data.
package domain

import "strings"

// Name is a fully-qualified DNS name held in canonical, absolute text form
// (always ending in a dot) with ASCII-case folded for comparison purposes.
// The original casing supplied by a caller is preserved in String(); only
// Equal/IsSubdomainOf/Relativize fold case.
type Name struct {
	text string
}

// NewName builds a Name from free text. A trailing dot is added if missing.
// An empty string denotes the DNS root.
func NewName(s string) Name {
	if s == "" || s == "." {
		return Name{text: "."}
	}
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return Name{text: s}
}

// String returns the canonical absolute text form.
func (n Name) String() string {
	if n.text == "" {
		return "."
	}
	return n.text
}

// Text returns n without its trailing dot, the wire form used by the
// backend protocol (spec §4.6's worked examples never carry one, unlike
// this type's internal absolute-FQDN representation).
func (n Name) Text() string {
	return strings.TrimSuffix(n.String(), ".")
}

// IsRoot reports whether n is the DNS root.
func (n Name) IsRoot() bool {
	return n.text == "" || n.text == "."
}

// Labels splits n into its dot-separated labels, root-most last, apex
// dropped trailing empty label.
func (n Name) Labels() []string {
	trimmed := strings.TrimSuffix(n.text, ".")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ".")
}

func foldLabel(l string) string {
	return strings.ToLower(l)
}

// Equal compares two names case-insensitively per RFC 1035.
func (n Name) Equal(o Name) bool {
	return strings.EqualFold(strings.TrimSuffix(n.text, "."), strings.TrimSuffix(o.text, "."))
}

// IsSubdomainOf reports whether n is equal to or a strict descendant of
// zone, folding case the way DNS name comparison requires.
func (n Name) IsSubdomainOf(zone Name) bool {
	nl, zl := n.Labels(), zone.Labels()
	if len(nl) < len(zl) {
		return false
	}
	offset := len(nl) - len(zl)
	for i, zlabel := range zl {
		if foldLabel(nl[offset+i]) != foldLabel(zlabel) {
			return false
		}
	}
	return true
}

// Relativize returns the labels of n left of origin's apex, joined back
// into a relative name, plus true when n is actually inside origin. When n
// equals origin exactly, the relative name is "@". ok is false when n is
// not a subdomain of origin.
func (n Name) Relativize(origin Name) (rel string, ok bool) {
	if !n.IsSubdomainOf(origin) {
		return "", false
	}
	nl, ol := n.Labels(), origin.Labels()
	if len(nl) == len(ol) {
		return "@", true
	}
	return strings.Join(nl[:len(nl)-len(ol)], "."), true
}

// Concat builds the absolute Name formed by prefixing origin with the
// labels of a relative owner. The literal "@" denotes the apex itself.
func Concat(owner string, origin Name) Name {
	if owner == "" || owner == "@" {
		return origin
	}
	if origin.IsRoot() {
		return NewName(owner)
	}
	return NewName(owner + "." + strings.TrimSuffix(origin.text, "."))
}

// Package trait identifies the ratable traits of a character sheet.
//
// A Ref is a tagged union: attribute, ability, sphere and background refs
// carry a catalog name, while scalar refs (Arete, Willpower, Quintessence)
// are identified by kind alone. Refs are resolved against a ruleset at the
// boundary; this package does not know the catalogs.
package trait

import (
	"fmt"
	"strings"
)

// Kind is the trait category.
type Kind string

const (
	KindAttribute    Kind = "attribute"
	KindAbility      Kind = "ability"
	KindSphere       Kind = "sphere"
	KindBackground   Kind = "background"
	KindArete        Kind = "arete"
	KindWillpower    Kind = "willpower"
	KindQuintessence Kind = "quintessence"
)

// Named reports whether refs of this kind carry a catalog name.
func (k Kind) Named() bool {
	switch k {
	case KindAttribute, KindAbility, KindSphere, KindBackground:
		return true
	}
	return false
}

// Scalar reports whether k is one of the single-valued traits.
func (k Kind) Scalar() bool {
	switch k {
	case KindArete, KindWillpower, KindQuintessence:
		return true
	}
	return false
}

// Ref identifies one trait.
type Ref struct {
	Kind Kind
	Name string
}

func Attribute(name string) Ref  { return Ref{Kind: KindAttribute, Name: name} }
func Ability(name string) Ref    { return Ref{Kind: KindAbility, Name: name} }
func Sphere(name string) Ref     { return Ref{Kind: KindSphere, Name: name} }
func Background(name string) Ref { return Ref{Kind: KindBackground, Name: name} }

var (
	Arete        = Ref{Kind: KindArete}
	Willpower    = Ref{Kind: KindWillpower}
	Quintessence = Ref{Kind: KindQuintessence}
)

// Key returns the stable string form, "kind:Name" for named traits and
// "kind" for scalars. Baselines and journals are keyed by it.
func (r Ref) Key() string {
	if r.Kind.Named() {
		return string(r.Kind) + ":" + r.Name
	}
	return string(r.Kind)
}

// String returns a display label.
func (r Ref) String() string {
	if r.Kind.Named() {
		return r.Name
	}
	switch r.Kind {
	case KindArete:
		return "Arete"
	case KindWillpower:
		return "Willpower"
	case KindQuintessence:
		return "Quintessence"
	}
	return string(r.Kind)
}

// Validate checks the ref shape without consulting a ruleset.
func (r Ref) Validate() error {
	switch {
	case r.Kind.Named():
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("%s trait requires a name", r.Kind)
		}
	case r.Kind.Scalar():
		if r.Name != "" {
			return fmt.Errorf("%s trait does not take a name", r.Kind)
		}
	default:
		return fmt.Errorf("unknown trait kind %q", r.Kind)
	}
	return nil
}

// ParseKey parses the output of Key. Kinds are case-insensitive.
func ParseKey(key string) (Ref, error) {
	kindPart, name, hasName := strings.Cut(strings.TrimSpace(key), ":")
	ref := Ref{Kind: Kind(strings.ToLower(strings.TrimSpace(kindPart)))}
	if hasName {
		ref.Name = strings.TrimSpace(name)
	}
	if err := ref.Validate(); err != nil {
		return Ref{}, fmt.Errorf("parse trait key %q: %w", key, err)
	}
	return ref, nil
}

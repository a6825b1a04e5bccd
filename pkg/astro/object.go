package astro

import (
	"fmt"
	"strings"
	"time"

	"github.com/chrissnell/startracker/pkg/lunar"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/solar"
)

// Kind tags the variant of an Object. Only KindMoon carries a phase.
type Kind int

const (
	KindStar Kind = iota
	KindMoon
	KindSun
)

func (k Kind) String() string {
	switch k {
	case KindStar:
		return "star"
	case KindMoon:
		return "moon"
	case KindSun:
		return "sun"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "star":
		return KindStar, nil
	case "moon":
		return KindMoon, nil
	case "sun":
		return KindSun, nil
	default:
		return KindStar, fmt.Errorf("unknown object kind %q", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Object is something that can be tracked on the sky. Stars carry a constant
// Position; the Moon and Sun compute theirs per moment and leave it nil.
type Object struct {
	Identifier string                `json:"identifier"`
	Kind       Kind                  `json:"kind"`
	Position   *EquatorialCoordinate `json:"position,omitempty"`
}

// NewStar returns a fixed object at the given right ascension and
// declination (degrees).
func NewStar(identifier string, ra, dec float64) Object {
	return Object{
		Identifier: identifier,
		Kind:       KindStar,
		Position:   &EquatorialCoordinate{RightAscension: ra, Declination: dec},
	}
}

// Moon returns the Moon.
func Moon() Object {
	return Object{Identifier: "Moon", Kind: KindMoon}
}

// Sun returns the Sun.
func Sun() Object {
	return Object{Identifier: "Sun", Kind: KindSun}
}

// EquatorialCoordinate returns the object's position at t.
func (o Object) EquatorialCoordinate(t time.Time) EquatorialCoordinate {
	switch o.Kind {
	case KindMoon:
		ra, dec := lunar.Position(t)
		return EquatorialCoordinate{RightAscension: ra.Deg(), Declination: dec.Deg()}
	case KindSun:
		ra, dec := solar.ApparentEquatorial(julian.TimeToJD(t.UTC()))
		return EquatorialCoordinate{RightAscension: ra.Deg(), Declination: dec.Deg()}
	default:
		eq, _ := o.Fixed()
		return eq
	}
}

// Phase returns the illuminated fraction in [0,1]. ok is false for every
// kind except KindMoon.
func (o Object) Phase(t time.Time) (fraction float64, ok bool) {
	if o.Kind != KindMoon {
		return 0, false
	}
	return lunar.Calculate(t).Illumination, true
}

// NormalizedIdentifier strips whitespace and lowercases the identifier so
// "M 31" and "m31" compare equal.
func (o Object) NormalizedIdentifier() string {
	return NormalizeIdentifier(o.Identifier)
}

// NormalizeIdentifier strips all whitespace and lowercases id.
func NormalizeIdentifier(id string) string {
	return strings.ToLower(strings.Join(strings.Fields(id), ""))
}

// Fixed returns the constant position of a star. ok is false for the Moon
// and Sun.
func (o Object) Fixed() (eq EquatorialCoordinate, ok bool) {
	if o.Kind != KindStar || o.Position == nil {
		return EquatorialCoordinate{}, false
	}
	return *o.Position, true
}

// SameObject reports whether a and b name the same object.
func SameObject(a, b Object) bool {
	return a.NormalizedIdentifier() == b.NormalizedIdentifier()
}

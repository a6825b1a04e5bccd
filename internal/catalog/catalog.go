// Package catalog resolves object identifiers to equatorial coordinates and
// remembers previous searches.
package catalog

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/chrissnell/startracker/pkg/astro"
)

// ErrNotFound is returned when neither the cache nor the resolver knows an
// identifier.
var ErrNotFound = errors.New("object not found")

// Entry is one resolved search.
type Entry struct {
	Query          string    `json:"query"`
	Identifier     string    `json:"identifier"`
	RightAscension float64   `json:"ra"`
	Declination    float64   `json:"dec"`
	ResolvedAt     time.Time `json:"resolved_at"`
}

// Object returns the fixed object the entry resolved to.
func (e Entry) Object() astro.Object {
	return astro.NewStar(e.Identifier, e.RightAscension, e.Declination)
}

// Equatorial returns the entry's position.
func (e Entry) Equatorial() astro.EquatorialCoordinate {
	return astro.EquatorialCoordinate{RightAscension: e.RightAscension, Declination: e.Declination}
}

var unsafeIdentifierChars = regexp.MustCompile(`[^0-9a-zA-Z\s.\-]`)

// Sanitize strips everything but letters, digits, whitespace, periods and
// hyphens from a user-typed identifier, then trims it.
func Sanitize(id string) string {
	return strings.TrimSpace(unsafeIdentifierChars.ReplaceAllString(id, ""))
}

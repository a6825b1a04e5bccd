package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/chrissnell/startracker/pkg/astro"
)

const dateLayout = "2006-01-02"

// CreateGraphRequest is the body of POST /api/graphs. Every field is
// optional.
type CreateGraphRequest struct {
	Location         string   `json:"location,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	UTCOffsetMinutes *int     `json:"utc_offset_minutes,omitempty"`
	Start            string   `json:"start,omitempty"`
	Days             int      `json:"days,omitempty"`
}

// ObjectRequest names an object to plot. Stars take either an identifier to
// resolve or explicit ra/dec in degrees.
type ObjectRequest struct {
	Identifier string     `json:"identifier,omitempty"`
	Kind       astro.Kind `json:"kind,omitempty"`
	RA         *float64   `json:"ra,omitempty"`
	Dec        *float64   `json:"dec,omitempty"`
	Color      string     `json:"color,omitempty"`
}

// WatchRequest is the body of POST /api/graphs/{id}/watches.
type WatchRequest struct {
	ObjectRequest
	AngularDistance float64 `json:"angular_distance"`
}

// VisibilityRequest is the body of PUT .../visibility.
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// RangeRequest is the body of PUT .../range. Dates are YYYY-MM-DD in the
// graph's time zone or RFC 3339 timestamps.
type RangeRequest struct {
	Start string `json:"start"`
	Stop  string `json:"stop"`
}

// LocationRequest moves a graph to a saved location by name or to explicit
// coordinates. Without an offset the UTC offset is guessed from longitude.
type LocationRequest struct {
	Name             string   `json:"name,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	UTCOffsetMinutes *int     `json:"utc_offset_minutes,omitempty"`
}

// TimeZoneRequest is the body of PUT .../timezone.
type TimeZoneRequest struct {
	UTCOffsetMinutes int `json:"utc_offset_minutes"`
}

// SearchRequest is the body of POST .../search.
type SearchRequest struct {
	Query string `json:"query"`
}

func decodeBody(req *http.Request, v any) error {
	if req.Body == nil || req.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, req.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgument, err)
	}
	return nil
}

// parseDate reads s as YYYY-MM-DD in zone, or as an RFC 3339 timestamp
// converted to zone.
func parseDate(s string, zone *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, zone); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is neither YYYY-MM-DD nor RFC 3339", errInvalidArgument, s)
	}
	return t.In(zone), nil
}

func validOffset(minutes int) error {
	if minutes < -14*60 || minutes > 14*60 {
		return fmt.Errorf("%w: UTC offset %d minutes", errInvalidArgument, minutes)
	}
	return nil
}

func validCoordinate(lat, lon *float64) (astro.GeographicCoordinate, error) {
	if lat == nil || lon == nil {
		return astro.GeographicCoordinate{}, fmt.Errorf("%w: latitude and longitude are both required", errInvalidArgument)
	}
	loc := astro.GeographicCoordinate{Latitude: *lat, Longitude: *lon}
	if err := loc.Validate(); err != nil {
		return loc, fmt.Errorf("%w: %v", errInvalidArgument, err)
	}
	return loc, nil
}

func validEquatorial(ra, dec float64) error {
	if math.IsNaN(ra) || math.IsInf(ra, 0) || math.IsNaN(dec) || dec < -90 || dec > 90 {
		return fmt.Errorf("%w: equatorial coordinate (%v, %v)", errInvalidArgument, ra, dec)
	}
	return nil
}

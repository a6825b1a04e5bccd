package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/chrissnell/startracker/internal/catalog"
	"github.com/chrissnell/startracker/internal/graph"
	"github.com/chrissnell/startracker/internal/log"
	"github.com/chrissnell/startracker/pkg/astro"
	"github.com/chrissnell/startracker/pkg/config"
	"github.com/chrissnell/startracker/pkg/lunar"
	"github.com/chrissnell/startracker/pkg/sky"
	"github.com/chrissnell/startracker/pkg/solar"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// SearchedObjectIndex is the series slot searches are plotted into.
	SearchedObjectIndex = 0
	searchedColor       = "#000F"
	moonColor           = "#888F"
	placeholderDec      = -75.0
)

// GraphView is the JSON form of a session.
type GraphView struct {
	ID               string           `json:"id"`
	LocationName     string           `json:"location_name,omitempty"`
	UTCOffsetMinutes int              `json:"utc_offset_minutes"`
	StepSize         float64          `json:"step_size"`
	Subscribers      int              `json:"subscribers"`
	State            graph.GraphState `json:"state"`
}

// LegendEntry describes one series for the legend.
type LegendEntry struct {
	Index      int    `json:"index"`
	Identifier string `json:"identifier"`
	Kind       string `json:"kind"`
	Color      string `json:"color"`
	Visible    bool   `json:"visible"`
}

// SearchResult is a resolved object with links to survey imagery.
type SearchResult struct {
	catalog.Entry
	Cached   bool   `json:"cached"`
	ImageURL string `json:"image_url"`
	MapURL   string `json:"map_url"`
}

// Almanac summarizes the first night of a graph.
type Almanac struct {
	Date                 string  `json:"date"`
	Sunrise              string  `json:"sunrise"`
	Sunset               string  `json:"sunset"`
	DayLength            float64 `json:"day_length_hours"`
	CivilTwilight        float64 `json:"civil_twilight_hours"`
	NauticalTwilight     float64 `json:"nautical_twilight_hours"`
	AstronomicalTwilight float64 `json:"astronomical_twilight_hours"`
	MoonPhase            string  `json:"moon_phase"`
	MoonIllumination     float64 `json:"moon_illumination"`
	MoonAgeDays          float64 `json:"moon_age_days"`
}

// Health reports liveness and the last catalog cache check.
func (s *Server) Health(w http.ResponseWriter, req *http.Request) {
	body := map[string]any{"status": catalog.StatusHealthy, "graphs": s.sessions.Len()}
	status := http.StatusOK
	if s.health != nil {
		checks := s.health.All()
		for _, h := range checks {
			if h.Status != catalog.StatusHealthy {
				body["status"] = catalog.StatusUnhealthy
				status = http.StatusServiceUnavailable
			}
		}
		body["checks"] = checks
	}
	s.formatter.WriteStatus(w, req, status, body, nil)
}

// CreateGraph starts a session holding a hidden searched-object slot, the
// Moon, and the default Moon proximity watch.
func (s *Server) CreateGraph(w http.ResponseWriter, req *http.Request) {
	var body CreateGraphRequest
	if err := decodeBody(req, &body); err != nil {
		s.writeError(w, req, err)
		return
	}

	sess, err := s.newSession(req.Context(), body)
	if err != nil {
		s.writeError(w, req, err)
		return
	}

	sess.mu.Lock()
	view := s.view(sess)
	sess.mu.Unlock()

	log.Infow("graph created", "id", sess.ID, "location", view.State.Location.String())
	s.formatter.WriteStatus(w, req, http.StatusCreated, view, map[string]string{"Location": "/api/graphs/" + sess.ID})
}

func (s *Server) newSession(ctx context.Context, body CreateGraphRequest) (*Session, error) {
	loc, name, err := s.resolveLocation(body.Location, body.Latitude, body.Longitude)
	if err != nil {
		return nil, err
	}

	offset := sky.UTCOffsetForLongitude(loc.Longitude)
	if body.Location == "" && body.Latitude == nil && s.cfg.Observer.UTCOffsetMinutes != nil {
		offset = *s.cfg.Observer.UTCOffsetMinutes
	}
	if body.UTCOffsetMinutes != nil {
		offset = *body.UTCOffsetMinutes
	}
	if err := validOffset(offset); err != nil {
		return nil, err
	}
	zone := sky.Zone(offset)

	start := s.now().In(zone)
	if body.Start != "" {
		if start, err = parseDate(body.Start, zone); err != nil {
			return nil, err
		}
	}
	days := body.Days
	if days == 0 {
		days = s.cfg.Graph.Days
	}
	if days < 1 || (s.cfg.Graph.MaxDays > 0 && days > s.cfg.Graph.MaxDays) {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", errInvalidArgument, s.cfg.Graph.MaxDays)
	}

	id := uuid.NewString()
	observers := graph.AlertObservers{s.metrics.ForGraph(id)}
	if s.alerts != nil {
		observers = append(observers, s.alerts.ForGraph(id))
	}

	ctrl, err := graph.New(s.hub.Surface(id), s.provider, loc, start, start.AddDate(0, 0, days),
		graph.WithProximityChecks(s.cfg.Graph.ProximityChecks),
		graph.WithMaxDays(s.cfg.Graph.MaxDays),
		graph.WithAlertObserver(observers))
	if err != nil {
		return nil, err
	}

	if _, err := ctrl.AddTrackedObject(astro.NewStar("", 0, placeholderDec), searchedColor); err != nil {
		return nil, err
	}
	if err := ctrl.SetVisibility(SearchedObjectIndex, false); err != nil {
		return nil, err
	}
	if _, err := ctrl.AddTrackedObject(astro.Moon(), moonColor); err != nil {
		return nil, err
	}
	if s.cfg.Graph.MoonWatch.Enabled {
		watch := graph.ProximityWatch{Object: astro.Moon(), AngularDistance: s.cfg.Graph.MoonWatch.AngularDistance}
		if err := ctrl.AddProximityWatch(watch); err != nil {
			return nil, err
		}
	}

	now := s.now()
	sess := &Session{
		ID:           id,
		ctrl:         ctrl,
		locationName: name,
		utcOffset:    offset,
		created:      now,
		lastUsed:     now,
	}
	if err := s.sessions.Add(sess); err != nil {
		s.forget(id)
		return nil, err
	}
	s.metrics.SetActiveGraphs(s.sessions.Len())
	return sess, nil
}

func (s *Server) resolveLocation(name string, lat, lon *float64) (astro.GeographicCoordinate, string, error) {
	if lat != nil || lon != nil {
		loc, err := validCoordinate(lat, lon)
		return loc, "", err
	}

	locations, err := s.configProvider.GetLocations()
	if err != nil {
		return astro.GeographicCoordinate{}, "", err
	}
	cfg := config.ConfigData{Locations: locations, Observer: s.cfg.Observer}

	var l config.LocationData
	if name == "" {
		l = cfg.ObserverLocation()
	} else {
		var ok bool
		if l, ok = cfg.FindLocation(name); !ok {
			return astro.GeographicCoordinate{}, "", fmt.Errorf("%w: %q", errLocationNotFound, name)
		}
	}
	return astro.GeographicCoordinate{Latitude: l.Latitude, Longitude: l.Longitude}, l.Name, nil
}

func (s *Server) view(sess *Session) GraphView {
	state := sess.ctrl.State()
	return GraphView{
		ID:               sess.ID,
		LocationName:     sess.locationName,
		UTCOffsetMinutes: sess.utcOffset,
		StepSize:         state.StepSize(),
		Subscribers:      s.hub.Subscribers(sess.ID),
		State:            state,
	}
}

// withSession runs fn with the request's session locked.
func (s *Server) withSession(w http.ResponseWriter, req *http.Request, fn func(*Session) (any, error)) {
	sess, err := s.sessions.Get(mux.Vars(req)["id"])
	if err != nil {
		s.writeError(w, req, err)
		return
	}

	sess.mu.Lock()
	var result any
	if sess.closed {
		err = errSessionNotFound
	} else {
		sess.lastUsed = s.now()
		result, err = fn(sess)
		if err == nil && result == nil {
			result = s.view(sess)
		}
	}
	sess.mu.Unlock()

	if err != nil {
		s.writeError(w, req, err)
		return
	}
	s.formatter.WriteResponse(w, req, result, nil)
}

// GetGraph returns the session state.
func (s *Server) GetGraph(w http.ResponseWriter, req *http.Request) {
	s.withSession(w, req, func(*Session) (any, error) { return nil, nil })
}

// DeleteGraph ends a session.
func (s *Server) DeleteGraph(w http.ResponseWriter, req *http.Request) {
	sess, err := s.sessions.Get(mux.Vars(req)["id"])
	if err != nil {
		s.writeError(w, req, err)
		return
	}

	sess.mu.Lock()
	closed := s.closeSession(sess)
	sess.mu.Unlock()
	if !closed {
		s.writeError(w, req, errSessionNotFound)
		return
	}
	s.metrics.SetActiveGraphs(s.sessions.Len())
	w.WriteHeader(http.StatusNoContent)
}

// GetChart returns the chart as last drawn.
func (s *Server) GetChart(w http.ResponseWriter, req *http.Request) {
	s.withSession(w, req, func(sess *Session) (any, error) {
		return sess.ctrl.Chart(), nil
	})
}

// GetLegend lists every series.
func (s *Server) GetLegend(w http.ResponseWriter, req *http.Request) {
	s.withSession(w, req, func(sess *Session) (any, error) {
		state := sess.ctrl.State()
		legend := make([]LegendEntry, len(state.Series))
		for i, series := range state.Series {
			legend[i] = LegendEntry{
				Index:      i,
				Identifier: series.Object.Identifier,
				Kind:       series.Object.Kind.String(),
				Color:      series.Color,
				Visible:    series.Visible,
			}
		}
		return legend, nil
	})
}

// ServeWS subscribes a websocket to the graph's redraws.
func (s *Server) ServeWS(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if _, err := s.sessions.Get(id); err != nil {
		s.writeError(w, req, err)
		return
	}
	s.hub.ServeWS(w, req, id)
}

// AddObject appends a series and returns the updated graph.
func (s *Server) AddObject(w http.ResponseWriter, req *http.Request) {
	var body ObjectRequest
	if err := decodeBody(req, &body); err != nil {
		s.writeError(w, req, err)
		return
	}
	obj, err := s.objectFor(req.Context(), body)
	if err != nil {
		s.writeError(w, req, err)
		return
	}

	s.withSession(w, req, func(sess *Session) (any, error) {
		_, err := sess.ctrl.AddTrackedObject(obj, colorOrRandom(body.Color))
		return nil, err
	})
}

// SetObject replaces the series at {index}, keeping its visibility.
func (s *Server) SetObject(w http.ResponseWriter, req *http.Request) {
	var body ObjectRequest
	if err := decodeBody(req, &body); err != nil {
		s.writeError(w, req, err)
		return
	}
	obj, err := s.objectFor(req.Context(), body)
	if err != nil {
		s.writeError(w, req, err)
		return
	}
	index := pathIndex(req)

	s.withSession(w, req, func(sess *Session) (any, error) {
		color := body.Color
		if color == "" {
			color, _ = sess.ctrl.Color(index)
		}
		return nil, sess.ctrl.SetTrackedObjectAt(index, obj, colorOrRandom(color))
	})
}

// RemoveObject removes the series at {index}. Unknown indexes are ignored.
func (s *Server) RemoveObject(w http.ResponseWriter, req *http.Request) {
	index := pathIndex(req)
	s.withSession(w, req, func(sess *Session) (any, error) {
		return nil, sess.ctrl.RemoveTrackedObjectAt(index)
	})
}

// RemoveObjectsFrom removes every series at or after ?from=.
func (s *Server) RemoveObjectsFrom(w http.ResponseWriter, req *http.Request) {
	from, err := strconv.Atoi(req.URL.Query().Get("from"))
	if err != nil {
		s.writeError(w, req, fmt.Errorf("%w: from must be an integer", errInvalidArgument))
		return
	}
	s.withSession(w, req, func(sess *Session) (any, error) {
		return nil, sess.ctrl.RemoveAllFrom(from)
	})
}

// SetVisibility shows or hides the series at {index}.
func (s *Server) SetVisibility(w http.ResponseWriter, req *http.Request) {
	var body VisibilityRequest
	if err := decodeBody(req, &body); err != nil {
		s.writeError(w, req, err)
		return
	}
	index := pathIndex(req)
	s.withSession(w, req, func(sess *Session) (any, error) {
		return nil, sess.ctrl.SetVisibility(index, body.Visible)
	})
}

// SetRange changes the graph's dates.
func (s *Server) SetRange(w http.ResponseWriter, req *http.Request) {
	var body RangeRequest
	if err := decodeBody(req, &body); err != nil {
		s.writeError(w, req, err)
		return
	}
	s.withSession(w, req, func(sess *Session) (any, error) {
		start, err := parseDate(body.Start, sess.zone())
		if err != nil {
			return nil, err
		}
		stop, err := parseDate(body.Stop, sess.zone())
		if err != nil {
			return nil, err
		}
		return nil, sess.ctrl.SetLocationAndRange(sess.ctrl.State().Location, start, stop)
	})
}

// StepRange moves the graph ?n= whole spans forward, or back when negative.
func (s *Server) StepRange(w http.ResponseWriter, req *http.Request) {
	n := 1
	if v := req.URL.Query().Get("n"); v != "" {
		var err error
		if n, err = strconv.Atoi(v); err != nil {
			s.writeError(w, req, fmt.Errorf("%w: n must be an integer", errInvalidArgument))
			return
		}
	}
	s.withSession(w, req, func(sess *Session) (any, error) {
		return nil, sess.ctrl.StepRange(n)
	})
}

// SetLocation moves the graph to another observer.
func (s *Server) SetLocation(w http.ResponseWriter, req *http.Request) {
	var body LocationRequest
	if err := decodeBody(req, &body); err != nil {
		s.writeError(w, req, err)
		return
	}
	if body.Name == "" && body.Latitude == nil && body.Longitude == nil {
		s.writeError(w, req, fmt.Errorf("%w: a location name or coordinates are required", errInvalidArgument))
		return
	}
	loc, name, err := s.resolveLocation(body.Name, body.Latitude, body.Longitude)
	if err != nil {
		s.writeError(w, req, err)
		return
	}
	offset := sky.UTCOffsetForLongitude(loc.Longitude)
	if body.UTCOffsetMinutes != nil {
		offset = *body.UTCOffsetMinutes
	}
	if err := validOffset(offset); err != nil {
		s.writeError(w, req, err)
		return
	}

	s.withSession(w, req, func(sess *Session) (any, error) {
		state := sess.ctrl.State()
		zone := sky.Zone(offset)
		if err := sess.ctrl.SetLocationAndRange(loc, state.Start.In(zone), state.Stop.In(zone)); err != nil {
			return nil, err
		}
		sess.locationName = name
		sess.utcOffset = offset
		return nil, nil
	})
}

// SetTimeZone re-expresses the graph's range in another UTC offset.
func (s *Server) SetTimeZone(w http.ResponseWriter, req *http.Request) {
	var body TimeZoneRequest
	if err := decodeBody(req, &body); err != nil {
		s.writeError(w, req, err)
		return
	}
	if err := validOffset(body.UTCOffsetMinutes); err != nil {
		s.writeError(w, req, err)
		return
	}
	s.withSession(w, req, func(sess *Session) (any, error) {
		state := sess.ctrl.State()
		zone := sky.Zone(body.UTCOffsetMinutes)
		if err := sess.ctrl.SetLocationAndRange(state.Location, state.Start.In(zone), state.Stop.In(zone)); err != nil {
			return nil, err
		}
		sess.utcOffset = body.UTCOffsetMinutes
		return nil, nil
	})
}

// AddWatch adds a proximity watch.
func (s *Server) AddWatch(w http.ResponseWriter, req *http.Request) {
	var body WatchRequest
	if err := decodeBody(req, &body); err != nil {
		s.writeError(w, req, err)
		return
	}
	obj, err := s.objectFor(req.Context(), body.ObjectRequest)
	if err != nil {
		s.writeError(w, req, err)
		return
	}
	s.withSession(w, req, func(sess *Session) (any, error) {
		return nil, sess.ctrl.AddProximityWatch(graph.ProximityWatch{Object: obj, AngularDistance: body.AngularDistance})
	})
}

// GetWatches lists the graph's proximity watches.
func (s *Server) GetWatches(w http.ResponseWriter, req *http.Request) {
	s.withSession(w, req, func(sess *Session) (any, error) {
		return sess.ctrl.State().Watches, nil
	})
}

// GetAlerts lists the proximity alerts behind the current overlays.
func (s *Server) GetAlerts(w http.ResponseWriter, req *http.Request) {
	s.withSession(w, req, func(sess *Session) (any, error) {
		return sess.ctrl.Alerts(), nil
	})
}

// GetTooltip describes series ?index= at ?hours= after the start.
func (s *Server) GetTooltip(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	index, err := strconv.Atoi(q.Get("index"))
	if err != nil {
		s.writeError(w, req, fmt.Errorf("%w: index must be an integer", errInvalidArgument))
		return
	}
	hours, err := strconv.ParseFloat(q.Get("hours"), 64)
	if err != nil {
		s.writeError(w, req, fmt.Errorf("%w: hours must be a number", errInvalidArgument))
		return
	}
	s.withSession(w, req, func(sess *Session) (any, error) {
		tip, err := sess.ctrl.Tooltip(index, hours)
		if err != nil {
			return nil, err
		}
		return map[string]any{"tooltip": tip, "lines": tip.Lines()}, nil
	})
}

// GetAlmanac summarizes the Sun and Moon on the graph's first day.
func (s *Server) GetAlmanac(w http.ResponseWriter, req *http.Request) {
	s.withSession(w, req, func(sess *Session) (any, error) {
		state := sess.ctrl.State()
		day := state.Start

		rs, err := s.provider.SunRiseSetTimes(state.Location, day)
		if err != nil {
			return nil, err
		}
		almanac := Almanac{
			Date:      day.Format(dateLayout),
			Sunrise:   solar.FormatHours(rs.Rise),
			Sunset:    solar.FormatHours(rs.Set),
			DayLength: rs.DayLength(),
		}
		twilights := []*float64{&almanac.CivilTwilight, &almanac.NauticalTwilight, &almanac.AstronomicalTwilight}
		for i, angle := range []float64{solar.CivilTwilight, solar.NauticalTwilight, solar.AstronomicalTwilight} {
			if *twilights[i], err = s.provider.TwilightTime(state.Location, day, angle); err != nil {
				return nil, err
			}
		}

		phase := lunar.Calculate(day)
		almanac.MoonPhase = phase.PhaseName
		almanac.MoonIllumination = phase.Illumination
		almanac.MoonAgeDays = phase.AgeDays
		return almanac, nil
	})
}

// SearchIntoGraph resolves a query and plots it in the searched-object slot.
// A miss hides the slot and returns 404.
func (s *Server) SearchIntoGraph(w http.ResponseWriter, req *http.Request) {
	var body SearchRequest
	if err := decodeBody(req, &body); err != nil {
		s.writeError(w, req, err)
		return
	}

	entry, cached, lookupErr := s.lookup(req.Context(), body.Query)

	s.withSession(w, req, func(sess *Session) (any, error) {
		if lookupErr != nil {
			if err := sess.ctrl.SetVisibility(SearchedObjectIndex, false); err != nil {
				return nil, err
			}
			return nil, lookupErr
		}
		if err := sess.ctrl.SetTrackedObjectAt(SearchedObjectIndex, entry.Object(), searchedColor); err != nil {
			return nil, err
		}
		if err := sess.ctrl.SetVisibility(SearchedObjectIndex, true); err != nil {
			return nil, err
		}
		return map[string]any{"result": searchResult(entry, cached), "graph": s.view(sess)}, nil
	})
}

// Search resolves ?q= without touching any graph. ?fov= selects the image
// zoom slider step.
func (s *Server) Search(w http.ResponseWriter, req *http.Request) {
	entry, cached, err := s.lookup(req.Context(), req.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, req, err)
		return
	}
	result := searchResult(entry, cached)
	if v := req.URL.Query().Get("fov"); v != "" {
		step, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, req, fmt.Errorf("%w: fov must be an integer", errInvalidArgument))
			return
		}
		result.ImageURL = catalog.ImageURL(entry.Equatorial(), catalog.FOVForSlider(step))
	}
	s.formatter.WriteResponse(w, req, result, nil)
}

// PreviousSearches lists cached queries for type-ahead.
func (s *Server) PreviousSearches(w http.ResponseWriter, req *http.Request) {
	keys, err := s.search.Previous(req.Context())
	if err != nil {
		s.writeError(w, req, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	s.formatter.WriteResponse(w, req, keys, nil)
}

// GetLocations lists saved locations.
func (s *Server) GetLocations(w http.ResponseWriter, req *http.Request) {
	locations, err := s.configProvider.GetLocations()
	if err != nil {
		s.writeError(w, req, err)
		return
	}
	s.formatter.WriteResponse(w, req, locations, nil)
}

// SaveLocation adds or updates a saved location.
func (s *Server) SaveLocation(w http.ResponseWriter, req *http.Request) {
	var body config.LocationData
	if err := decodeBody(req, &body); err != nil {
		s.writeError(w, req, err)
		return
	}
	if body.Name == "" {
		s.writeError(w, req, fmt.Errorf("%w: location name is required", errInvalidArgument))
		return
	}
	if err := (astro.GeographicCoordinate{Latitude: body.Latitude, Longitude: body.Longitude}).Validate(); err != nil {
		s.writeError(w, req, fmt.Errorf("%w: %v", errInvalidArgument, err))
		return
	}
	if err := s.configProvider.SaveLocation(body); err != nil {
		s.writeError(w, req, err)
		return
	}
	s.formatter.WriteStatus(w, req, http.StatusCreated, body, nil)
}

// DeleteLocation removes a saved location.
func (s *Server) DeleteLocation(w http.ResponseWriter, req *http.Request) {
	if err := s.configProvider.DeleteLocation(mux.Vars(req)["name"]); err != nil {
		s.writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(ctx context.Context, query string) (catalog.Entry, bool, error) {
	entry, cached, err := s.search.Lookup(ctx, query)
	switch {
	case err == nil && cached:
		s.metrics.CatalogLookup("cached")
	case err == nil:
		s.metrics.CatalogLookup("resolved")
	case errors.Is(err, catalog.ErrNotFound):
		s.metrics.CatalogLookup("not_found")
	default:
		s.metrics.CatalogLookup("error")
	}
	return entry, cached, err
}

func searchResult(e catalog.Entry, cached bool) SearchResult {
	return SearchResult{
		Entry:    e,
		Cached:   cached,
		ImageURL: catalog.ImageURL(e.Equatorial(), catalog.DefaultFOV),
		MapURL:   catalog.MapURL(e.Equatorial()),
	}
}

// objectFor turns a request into an object, resolving identifiers of stars
// without coordinates through the catalog.
func (s *Server) objectFor(ctx context.Context, r ObjectRequest) (astro.Object, error) {
	switch r.Kind {
	case astro.KindMoon:
		return astro.Moon(), nil
	case astro.KindSun:
		return astro.Sun(), nil
	}

	if r.RA != nil && r.Dec != nil {
		if err := validEquatorial(*r.RA, *r.Dec); err != nil {
			return astro.Object{}, err
		}
		return astro.NewStar(r.Identifier, math.Mod(math.Mod(*r.RA, 360)+360, 360), *r.Dec), nil
	}
	if r.Identifier == "" {
		return astro.Object{}, fmt.Errorf("%w: %v", errInvalidArgument, errObjectIdentifier)
	}

	entry, _, err := s.lookup(ctx, r.Identifier)
	if err != nil {
		return astro.Object{}, err
	}
	return entry.Object(), nil
}

func colorOrRandom(c string) string {
	if c == "" {
		return graph.RandomColor()
	}
	return c
}

func pathIndex(req *http.Request) int {
	index, err := strconv.Atoi(mux.Vars(req)["index"])
	if err != nil {
		return -1
	}
	return index
}

func (s *Server) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Errorw("request failed", "path", req.URL.Path, "error", err)
	}
	s.formatter.WriteError(w, req, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidArgument),
		errors.Is(err, graph.ErrConfiguration),
		errors.Is(err, sky.ErrInvalidLocation),
		errors.Is(err, sky.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, errSessionNotFound),
		errors.Is(err, errLocationNotFound),
		errors.Is(err, graph.ErrIndex),
		errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, config.ErrReadOnly),
		errors.Is(err, config.ErrLastLocation):
		return http.StatusConflict
	case errors.Is(err, errTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

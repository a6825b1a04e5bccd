package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultSimbadEndpoint is the synchronous TAP endpoint of SIMBAD.
const DefaultSimbadEndpoint = "https://simbad.u-strasbg.fr/simbad/sim-tap/sync"

// Resolver looks an identifier up in an external catalog.
type Resolver interface {
	Resolve(ctx context.Context, id string) (Entry, error)
}

// SimbadClient resolves identifiers with an ADQL query against SIMBAD.
type SimbadClient struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewSimbadClient returns a client for endpoint, or DefaultSimbadEndpoint
// when endpoint is empty.
func NewSimbadClient(endpoint string, timeout time.Duration) *SimbadClient {
	if endpoint == "" {
		endpoint = DefaultSimbadEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SimbadClient{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type tapResponse struct {
	Data [][]json.RawMessage `json:"data"`
}

// Resolve returns the position and main identifier SIMBAD has for id. id
// is sanitized before it is placed in the query.
func (s *SimbadClient) Resolve(ctx context.Context, id string) (Entry, error) {
	id = Sanitize(id)
	if id == "" {
		return Entry{}, ErrNotFound
	}

	q := url.Values{}
	q.Set("request", "doQuery")
	q.Set("lang", "adql")
	q.Set("format", "json")
	q.Set("phase", "run")
	q.Set("query", fmt.Sprintf("SELECT RA, DEC, main_id FROM basic JOIN ident ON oidref = oid WHERE id = '%s';", id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Entry{}, err
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return Entry{}, fmt.Errorf("error querying SIMBAD for %q: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Entry{}, fmt.Errorf("SIMBAD returned %s for %q", resp.Status, id)
	}

	var body tapResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Entry{}, fmt.Errorf("error decoding SIMBAD response for %q: %w", id, err)
	}
	if len(body.Data) == 0 || len(body.Data[0]) < 3 {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	row := body.Data[0]
	var e Entry
	var ok bool
	if e.RightAscension, ok = tapNumber(row[0]); !ok {
		return Entry{}, fmt.Errorf("%w: %q has no right ascension", ErrNotFound, id)
	}
	if e.Declination, ok = tapNumber(row[1]); !ok {
		return Entry{}, fmt.Errorf("%w: %q has no declination", ErrNotFound, id)
	}
	if err := json.Unmarshal(row[2], &e.Identifier); err != nil {
		return Entry{}, fmt.Errorf("error decoding SIMBAD identifier for %q: %w", id, err)
	}
	e.Identifier = strings.Join(strings.Fields(e.Identifier), " ")
	e.Query = id
	e.ResolvedAt = time.Now().UTC()
	return e, nil
}

// tapNumber decodes a numeric TAP cell. A null cell is not a number.
func tapNumber(raw json.RawMessage) (float64, bool) {
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return 0, false
	}
	return *v, true
}

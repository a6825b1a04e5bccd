// Package alerts publishes proximity alerts to NATS.
package alerts

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/startracker/internal/graph"
	"github.com/chrissnell/startracker/internal/log"
	"github.com/chrissnell/startracker/pkg/astro"
	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn the alert publisher needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the JSON body of one published alert.
type Event struct {
	Graph      string                     `json:"graph"`
	Watch      string                     `json:"watch"`
	Object     string                     `json:"object"`
	Time       time.Time                  `json:"time"`
	Separation float64                    `json:"separation"`
	Altitude   float64                    `json:"altitude"`
	Location   astro.GeographicCoordinate `json:"location"`
}

// NATSPublisher turns proximity alerts into NATS messages on
// <subject>.<graph id>. Each alert is published once per graph even though
// the graph recomputes it on every redraw.
type NATSPublisher struct {
	conn    Publisher
	subject string

	mu   sync.Mutex
	sent map[string]map[string]bool
}

// NewNATSPublisher publishes through conn under subject.
func NewNATSPublisher(conn Publisher, subject string) *NATSPublisher {
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		sent:    make(map[string]map[string]bool),
	}
}

// ForGraph returns the observer to register on the graph with id graphID.
func (p *NATSPublisher) ForGraph(graphID string) graph.AlertObserver {
	return graphObserver{p: p, id: graphID}
}

// Forget drops the dedup memory of a deleted graph.
func (p *NATSPublisher) Forget(graphID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sent, graphID)
}

type graphObserver struct {
	p  *NATSPublisher
	id string
}

func (o graphObserver) ProximityAlerts(state graph.GraphState, alerts []graph.Alert) {
	o.p.publish(o.id, state, alerts)
}

func (p *NATSPublisher) publish(graphID string, state graph.GraphState, alerts []graph.Alert) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := p.sent[graphID]
	if seen == nil {
		seen = make(map[string]bool)
		p.sent[graphID] = seen
	}

	subject := p.subject + "." + graphID
	for _, a := range alerts {
		key := fmt.Sprintf("%s|%s|%d|%v,%v", astro.NormalizeIdentifier(a.Watch), astro.NormalizeIdentifier(a.Object),
			a.Time.Unix(), state.Location.Latitude, state.Location.Longitude)
		if seen[key] {
			continue
		}

		body, err := json.Marshal(Event{
			Graph:      graphID,
			Watch:      a.Watch,
			Object:     a.Object,
			Time:       a.Time,
			Separation: a.Separation,
			Altitude:   a.Altitude,
			Location:   state.Location,
		})
		if err != nil {
			log.Errorf("error encoding proximity alert: %v", err)
			continue
		}
		if err := p.conn.Publish(subject, body); err != nil {
			log.Warnf("error publishing proximity alert to %s: %v", subject, err)
			continue
		}
		seen[key] = true
	}
}

// Config holds NATS connection settings.
type Config struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// Connect dials NATS with reconnect handling that logs through zap.
func Connect(cfg Config) (*nats.Conn, error) {
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 60
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	options := []nats.Option{
		nats.Name("startracker"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warnf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}
	return nc, nil
}

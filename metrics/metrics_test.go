package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func newTestCollector() *Collector {
	return NewCollector(WithRegistry(prometheus.NewRegistry()))
}

func TestCollector_Games(t *testing.T) {
	c := newTestCollector()

	c.GameCreated()
	c.GameCreated()
	c.GameEnded(ReasonLeft)

	if got := counterValue(t, c.gamesCreated); got != 2 {
		t.Errorf("Expected 2 games created, got %v", got)
	}
	if got := gaugeValue(t, c.activeGames); got != 1 {
		t.Errorf("Expected 1 active game, got %v", got)
	}
	if got := counterValue(t, c.gamesEnded.WithLabelValues(ReasonLeft)); got != 1 {
		t.Errorf("Expected 1 game ended by leave, got %v", got)
	}
	if got := counterValue(t, c.gamesEnded.WithLabelValues(ReasonDisconnect)); got != 0 {
		t.Errorf("Expected 0 games ended by disconnect, got %v", got)
	}
}

func TestCollector_Connections(t *testing.T) {
	c := newTestCollector()

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()

	if got := gaugeValue(t, c.connections); got != 1 {
		t.Errorf("Expected 1 connection, got %v", got)
	}
}

func TestCollector_ObserveEvent(t *testing.T) {
	c := newTestCollector()

	c.ObserveEvent("joinGame", nil, time.Millisecond)
	c.ObserveEvent("joinGame", errors.New("game is full"), time.Millisecond)
	c.ObserveEvent("joinGame", nil, time.Millisecond)

	if got := counterValue(t, c.events.WithLabelValues("joinGame", OutcomeOK)); got != 2 {
		t.Errorf("Expected 2 ok events, got %v", got)
	}
	if got := counterValue(t, c.events.WithLabelValues("joinGame", OutcomeError)); got != 1 {
		t.Errorf("Expected 1 error event, got %v", got)
	}
}

func TestCollector_Nil(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("nil collector panicked: %v", r)
		}
	}()

	var c *Collector
	c.GameCreated()
	c.GameEnded(ReasonDisconnect)
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.ObserveEvent("createGame", nil, 0)
}

func TestNewCollector_Namespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(WithRegistry(reg), WithNamespace("custom"))
	c.GameCreated()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "custom_games_created_total" {
			found = true
		}
	}
	if !found {
		t.Error("Expected custom_games_created_total to be registered")
	}
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/infra/metrics"
)

func samplePlan(t *testing.T) *model.Plan {
	t.Helper()
	p, err := model.NewPlan(model.PlanParams{
		Name: "Pro", Description: "Pro tier", Price: decimal.RequireFromString("29.99"),
		Duration: 1, DurationUnit: "MONTH",
	})
	if err != nil {
		t.Fatal(err)
	}
	p.ID = "plan-1"
	return p
}

func TestNewPlanEvent_Encoding(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	b, err := NewPlanEvent(PlanCreated, samplePlan(t), at).Marshal()
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["type"] != "plan.created" || got["plan_id"] != "plan-1" || got["name"] != "Pro" {
		t.Fatalf("unexpected envelope: %v", got)
	}
	if got["at"] != "2024-05-01T11:00:00Z" {
		t.Fatalf("event time must be UTC, got %v", got["at"])
	}
	plan, ok := got["plan"].(map[string]any)
	if !ok || plan["price"] != "29.99" || plan["duration_unit"] != "MONTH" {
		t.Fatalf("unexpected plan body: %v", got["plan"])
	}
}

func TestNewPlanEvent_DeleteOmitsBody(t *testing.T) {
	b, err := NewPlanEvent(PlanDeleted, samplePlan(t), time.Now()).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	_ = json.Unmarshal(b, &got)
	if _, ok := got["plan"]; ok {
		t.Fatalf("delete events carry no plan body: %s", b)
	}
}

func TestNewPlanEvent_SnapshotsPlan(t *testing.T) {
	p := samplePlan(t)
	ev := NewPlanEvent(PlanUpdated, p, time.Now())
	p.Name = "Changed"
	if ev.Plan.Name != "Pro" {
		t.Fatal("event must not alias the caller's plan")
	}
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(nil)
	if err := p.Publish(context.Background(), PlanCreated, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, key string, _ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func TestAsyncPublisher_DeliversBeforeClose(t *testing.T) {
	inner := &recordingPublisher{}
	p := NewAsyncPublisher(context.Background(), inner, 2, time.Second, nil)

	for _, k := range []string{PlanCreated, PlanUpdated, PlanDeleted} {
		if err := p.Publish(context.Background(), k, []byte("{}")); err != nil {
			t.Fatalf("Publish(%s): %v", k, err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if len(inner.keys) != 3 {
		t.Fatalf("expected 3 deliveries, got %v", inner.keys)
	}
	if err := p.Publish(context.Background(), PlanCreated, nil); err == nil {
		t.Fatal("publishing after Close must fail")
	}
}

func TestAsyncPublisher_RequestCancelDoesNotDropEvent(t *testing.T) {
	inner := &recordingPublisher{}
	p := NewAsyncPublisher(context.Background(), inner, 1, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Publish(ctx, PlanCreated, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	_ = p.Close()
	if len(inner.keys) != 1 {
		t.Fatalf("expected delivery despite cancelled request ctx, got %v", inner.keys)
	}
}

func eventCount(t *testing.T, key, result string) float64 {
	t.Helper()
	metrics.MustRegister()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if f.GetName() != "plan_events_published_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			var typ, res string
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "type":
					typ = lp.GetValue()
				case "result":
					res = lp.GetValue()
				}
			}
			if typ == key && res == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestAsyncPublisher_BrokerFailureCountedOnlyAsFailed(t *testing.T) {
	const key = "plan.async_failure_test"
	failed := eventCount(t, key, metrics.EventFailed)
	delivered := eventCount(t, key, metrics.EventDelivered)

	inner := &recordingPublisher{err: errors.New("channel closed")}
	p := NewAsyncPublisher(context.Background(), inner, 1, time.Second, nil)
	if err := p.Publish(context.Background(), key, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	_ = p.Close()

	if got := eventCount(t, key, metrics.EventFailed) - failed; got != 1 {
		t.Fatalf("failed grew by %v, want 1", got)
	}
	if got := eventCount(t, key, metrics.EventDelivered) - delivered; got != 0 {
		t.Fatalf("delivered grew by %v, want 0", got)
	}
}

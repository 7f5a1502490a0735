// Package events announces plan catalog changes to other services.
package events

import (
	"context"
	"encoding/json"
	"time"

	"plan-catalog/internal/domain/model"
)

// Routing keys on the plan events exchange.
const (
	PlanCreated = "plan.created"
	PlanUpdated = "plan.updated"
	PlanDeleted = "plan.deleted"
)

// DefaultExchange is the topic exchange plan events go to.
const DefaultExchange = "plancatalog.events"

// Publisher delivers an encoded event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// PlanEvent is the message body. Plan is nil for deletions.
type PlanEvent struct {
	Type   string      `json:"type"`
	PlanID string      `json:"plan_id"`
	Name   string      `json:"name"`
	At     time.Time   `json:"at"`
	Plan   *model.Plan `json:"plan,omitempty"`
}

func NewPlanEvent(eventType string, p *model.Plan, at time.Time) PlanEvent {
	ev := PlanEvent{Type: eventType, PlanID: p.ID, Name: p.Name, At: at.UTC()}
	if eventType != PlanDeleted {
		ev.Plan = p.Clone()
	}
	return ev
}

func (e PlanEvent) Marshal() ([]byte, error) { return json.Marshal(e) }

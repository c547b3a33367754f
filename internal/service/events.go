package service

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"fleetpool/api/internal/model"
)

// Movement event subjects. The WebSocket hub subscribes to
// "fleet.movement.*" and pushes these to connected browsers.
const (
	SubjectMovementPrefix = "fleet.movement."
)

// EventPublisher fans committed movement events out over NATS. Publishing
// is best-effort: the movement is already durable in the ledger, so a
// failed publish is logged, never surfaced to the caller.
type EventPublisher struct {
	nc *nats.Conn
}

// NewEventPublisher creates a new movement event publisher
func NewEventPublisher(nc *nats.Conn) *EventPublisher {
	return &EventPublisher{nc: nc}
}

// PublishMovement publishes a committed pickup/return event
func (p *EventPublisher) PublishMovement(m *model.Movement) {
	if p == nil || p.nc == nil {
		return
	}

	event := model.MovementEvent{
		MovementID:  m.ID,
		VehicleCode: m.VehicleCode,
		Op:          m.Op,
		EmpID:       m.EmpID,
		Timestamp:   m.Timestamp,
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Events] Failed to marshal movement event: %v", err)
		return
	}

	if err := p.nc.Publish(SubjectMovementPrefix+m.Op, data); err != nil {
		log.Printf("[Events] Failed to publish movement event: %v", err)
	}
}

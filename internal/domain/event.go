package domain

import "time"

// EventType labels journal entries.
type EventType string

const (
	EventOrderPlaced       EventType = "ORDER_PLACED"
	EventOrderFilled       EventType = "ORDER_FILLED"
	EventOrderCancelled    EventType = "ORDER_CANCELLED"
	EventPositionMonitored EventType = "POSITION_MONITORED"
	EventPositionExit      EventType = "POSITION_EXIT"
	EventScanResult        EventType = "SCAN_RESULT"
)

// Event is one journal entry. Payload is marshaled to JSON by the store.
type Event struct {
	ID          int64
	Type        EventType
	ConditionID string
	Detail      string
	Payload     any
	At          time.Time
}

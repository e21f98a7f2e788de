package sawitdb

import (
	"github.com/google/uuid"

	"github.com/GoldaRizki/sawitdb/internal/engine"
	"github.com/GoldaRizki/sawitdb/internal/storage/pager"
)

// EventType names the kind of mutation an Event reports.
type EventType = engine.EventType

// Mutation event types, re-exported from the executor shell.
const (
	OnTableInserted = engine.OnTableInserted
	OnTableUpdated  = engine.OnTableUpdated
	OnTableDeleted  = engine.OnTableDeleted
)

// Event is delivered synchronously to every Subscribe callback, within
// the call that produced it, after a successful mutating operation.
//
// ID is a fresh UUID per delivery, letting an external replication or
// trigger collaborator deduplicate retried deliveries; this is an
// additive field on top of the documented {type, table, data|criteria,
// updates?} shape.
type Event struct {
	ID       string
	Type     EventType
	Table    string
	Data     *pager.Record
	Criteria *engine.Criteria
	Updates  map[string]pager.Value
}

func translateEvent(ev engine.Event) Event {
	return Event{
		ID:       uuid.NewString(),
		Type:     ev.Type,
		Table:    ev.Table,
		Data:     ev.Data,
		Criteria: ev.Criteria,
		Updates:  ev.Updates,
	}
}

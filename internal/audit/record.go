package audit

import (
	"time"

	"github.com/google/uuid"
)

// Record is the classification of a single event.
type Record struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Passthrough returns the record used when nothing more specific is known
// about an event: its name is both type and description.
func Passthrough(name string) Record {
	return Record{Type: name, Description: name}
}

// Entry is one emitted audit log line.
type Entry struct {
	ID          string            `json:"id"`
	EventID     string            `json:"event_id,omitempty"`
	EventName   string            `json:"event_name"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	User        string            `json:"user,omitempty"`
	ClientIP    string            `json:"client_ip,omitempty"`
	Source      string            `json:"source,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
	EventTime   time.Time         `json:"event_time"`
}

// NewEntry stamps rec with a fresh ID for the event called name.
func NewEntry(name string, rec Record, eventTime time.Time) Entry {
	return Entry{
		ID:          uuid.NewString(),
		EventName:   name,
		Type:        rec.Type,
		Description: rec.Description,
		EventTime:   eventTime.UTC(),
	}
}

// Record returns the classification part of the entry.
func (e Entry) Record() Record {
	return Record{Type: e.Type, Description: e.Description}
}

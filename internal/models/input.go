package models

import "time"

// Category is the single label assigned to every input record.
type Category string

const (
	CategoryIssue    Category = "Issue"
	CategoryEvent    Category = "Event"
	CategoryTask     Category = "Task"
	CategoryIncident Category = "Incident"
	CategoryLog      Category = "Log"
	CategoryNote     Category = "Note"
)

// Categories lists the closed category set in classification priority order.
var Categories = []Category{
	CategoryIssue,
	CategoryEvent,
	CategoryTask,
	CategoryIncident,
	CategoryLog,
	CategoryNote,
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// StatusActive is the only status a record is ever given.
const StatusActive = "active"

// InputRecord is the persisted form of a submitted operational note.
type InputRecord struct {
	ID        string    `json:"id"`
	RawText   string    `json:"rawText"`
	Category  Category  `json:"category"`
	Tags      []string  `json:"tags"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// HasTag reports whether tag is one of the record's tags.
func (r InputRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with r.
func (r InputRecord) Clone() InputRecord {
	out := r
	out.Tags = append(make([]string, 0, len(r.Tags)), r.Tags...)
	return out
}

package models

import "time"

// QueueKind classifies a pending submission intent.
type QueueKind string

const (
	KindPlantNew      QueueKind = "plant_new"
	KindPlantAssigned QueueKind = "plant_assigned"
	KindUpdate        QueueKind = "update"
)

// QueueStatus is the durable state of a queue item. Failed items are
// returned to pending immediately with the failure reason recorded; any
// in_flight row still present when the database is opened belongs to a flush
// that crashed and is reset to pending (localdb does this).
type QueueStatus string

const (
	StatusPending  QueueStatus = "pending"
	StatusInFlight QueueStatus = "in_flight"
)

// QueuePayload is the serialized journey-equivalent stored with a queue
// item. It carries everything needed to resume the pipeline with no other
// runtime context.
type QueuePayload struct {
	Photo         string         `json:"photo"`
	PhotoLocation *Geocoordinate `json:"photo_location,omitempty"`
	Location      *Geocoordinate `json:"location,omitempty"`
	IsSingle      *bool          `json:"is_single,omitempty"`
	NurseryCount  int            `json:"nursery_count,omitempty"`

	// Birthday is the capture timestamp (unix seconds) recorded at enqueue
	// time so a deferred submission keeps the original planting date.
	Birthday int64 `json:"birthday"`
}

// QueueItem is one durable plant/update intent.
type QueueItem struct {
	OfflineID    string
	Kind         QueueKind
	TargetTreeID string
	Payload      QueuePayload
	Status       QueueStatus
	LastError    string
	CreatedAt    time.Time
}

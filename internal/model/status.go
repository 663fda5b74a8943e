package model

// RecordStatus is the aggregate status of a transfer record.
type RecordStatus string

// Record statuses.
const (
	RecordPendingReview RecordStatus = "pending_review"
	RecordUpcoming      RecordStatus = "upcoming"
	RecordInProgress    RecordStatus = "in_progress"
	RecordCompleted     RecordStatus = "completed"
	RecordOverdue       RecordStatus = "overdue"
	RecordCancelled     RecordStatus = "cancelled"
)

// RecordStatuses lists every record status in workflow order.
var RecordStatuses = []RecordStatus{
	RecordPendingReview,
	RecordUpcoming,
	RecordInProgress,
	RecordCompleted,
	RecordOverdue,
	RecordCancelled,
}

// Valid reports whether s is a known record status.
func (s RecordStatus) Valid() bool {
	switch s {
	case RecordPendingReview, RecordUpcoming, RecordInProgress,
		RecordCompleted, RecordOverdue, RecordCancelled:
		return true
	}
	return false
}

// IsEntry reports whether s is a status that is only ever set by hand and
// never derived from item statuses.
func (s RecordStatus) IsEntry() bool {
	return s == RecordPendingReview || s == RecordUpcoming
}

// ItemStatus is the movement status of one asset within a transfer.
type ItemStatus string

// Item statuses.
const (
	ItemPending     ItemStatus = "pending"
	ItemTransferred ItemStatus = "transferred"
	ItemCancelled   ItemStatus = "cancelled"
)

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemTransferred, ItemCancelled:
		return true
	}
	return false
}

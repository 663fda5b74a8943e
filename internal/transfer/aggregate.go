// Package transfer derives and reconciles transfer record statuses from the
// statuses of the assets attached to them. Everything here is pure: callers
// load a snapshot, compute, and persist the result themselves.
package transfer

import (
	"time"

	"github.com/erazemk/premik/internal/model"
)

type statusCounts struct {
	pending     int
	transferred int
	cancelled   int
}

func countStatuses(items []model.TransferItem) statusCounts {
	var c statusCounts
	for _, it := range items {
		switch it.Status {
		case model.ItemPending:
			c.pending++
		case model.ItemTransferred:
			c.transferred++
		case model.ItemCancelled:
			c.cancelled++
		}
	}
	return c
}

// SuggestStatus returns the record status implied by the item statuses.
// With no items the current status is returned unchanged.
//
// A record that regressed from completed becomes in_progress even when its
// scheduled date has passed; deriving again from in_progress then yields
// overdue.
func SuggestStatus(items []model.TransferItem, scheduled *time.Time, current model.RecordStatus, now time.Time) model.RecordStatus {
	if len(items) == 0 {
		return current
	}

	c := countStatuses(items)
	switch {
	case c.pending == 0 && c.cancelled == 0 && c.transferred > 0:
		return model.RecordCompleted
	case c.pending == 0 && c.transferred == 0 && c.cancelled > 0:
		return model.RecordCancelled
	case c.pending == 0 && (c.transferred > 0 || c.cancelled > 0):
		// Mixed transferred and cancelled with nothing left to move.
		return model.RecordCompleted
	case c.pending > 0:
		if current == model.RecordCompleted {
			return model.RecordInProgress
		}
		if scheduled != nil && PastDue(*scheduled, now) {
			return model.RecordOverdue
		}
		return model.RecordInProgress
	}
	return current
}

// PastDue reports whether the scheduled calendar day lies strictly before the
// calendar day of now. The scheduled date is read in its own location.
func PastDue(scheduled, now time.Time) bool {
	sy, sm, sd := scheduled.Date()
	ny, nm, nd := now.Date()
	return time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC).Before(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC))
}

package transfer

import (
	"time"

	"github.com/erazemk/premik/internal/model"
)

// Resolve applies a confirmed conflict to items and returns the updated
// copy. The input slice is left untouched.
func Resolve(c *model.Conflict, items []model.TransferItem, now time.Time) []model.TransferItem {
	out := cloneItems(items)
	if c == nil {
		return out
	}

	switch c.ResolvedStatus {
	case model.RecordCompleted, model.RecordCancelled:
		target := model.ItemTransferred
		if c.ResolvedStatus == model.RecordCancelled {
			target = model.ItemCancelled
		}
		for i := range out {
			if out[i].Status != model.ItemPending {
				continue
			}
			out[i].Status = target
			if out[i].MovedAt == nil {
				movedAt := now
				out[i].MovedAt = &movedAt
			}
		}
	case model.RecordPendingReview, model.RecordUpcoming:
		for i := range out {
			if out[i].Status != model.ItemTransferred {
				continue
			}
			out[i].Status = model.ItemPending
			out[i].MovedAt = nil
			out[i].ToSubAreaID = nil
		}
	}
	// in_progress only changes the record status.
	return out
}

// Outcome is what committing a desired status over a set of items amounts to.
type Outcome struct {
	Status   model.RecordStatus
	Items    []model.TransferItem
	Conflict *model.Conflict
}

// Reconcile computes the outcome of committing desired over items. When a
// conflict exists the outcome carries the resolved status and items the
// caller commits once the conflict is confirmed.
func Reconcile(desired model.RecordStatus, items []model.TransferItem, now time.Time) Outcome {
	c := DetectConflict(desired, items)
	if c == nil {
		return Outcome{Status: desired, Items: cloneItems(items)}
	}
	return Outcome{
		Status:   c.ResolvedStatus,
		Items:    Resolve(c, items, now),
		Conflict: c,
	}
}

func cloneItems(items []model.TransferItem) []model.TransferItem {
	if items == nil {
		return nil
	}
	out := make([]model.TransferItem, len(items))
	copy(out, items)
	return out
}

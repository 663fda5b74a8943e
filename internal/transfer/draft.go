package transfer

import (
	"errors"
	"time"

	"github.com/erazemk/premik/internal/model"
)

var (
	ErrUnknownItem      = errors.New("item is not attached to the transfer")
	ErrAlreadyAttached  = errors.New("asset is already attached to the transfer")
	ErrInvalidItemState = errors.New("invalid item status")
)

// Draft is an in-memory edit of a transfer record and its items. Every
// method returns a new Draft; the receiver is never modified.
type Draft struct {
	record model.TransferRecord
	items  []model.TransferItem
}

// NewDraft starts a draft from a loaded record.
func NewDraft(r model.TransferRecord) Draft {
	d := Draft{record: r, items: cloneItems(r.Items)}
	d.record.Items = nil
	return d
}

// Record returns the drafted record with its items.
func (d Draft) Record() model.TransferRecord {
	r := d.record
	r.Items = cloneItems(d.items)
	return r
}

// Items returns a copy of the drafted items.
func (d Draft) Items() []model.TransferItem {
	return cloneItems(d.items)
}

// Status returns the drafted record status.
func (d Draft) Status() model.RecordStatus {
	return d.record.Status
}

// Suggested returns the status the drafted items imply.
func (d Draft) Suggested(now time.Time) model.RecordStatus {
	return SuggestStatus(d.items, d.record.ScheduledDate, d.record.Status, now)
}

// Conflict reports the conflict committing desired over the drafted items
// would raise.
func (d Draft) Conflict(desired model.RecordStatus) *model.Conflict {
	return DetectConflict(desired, d.items)
}

// SetStatus returns a draft with the record status set to s.
func (d Draft) SetStatus(s model.RecordStatus) Draft {
	n := d.clone()
	n.record.Status = s
	return n
}

// SetScheduledDate returns a draft with the scheduled date replaced.
func (d Draft) SetScheduledDate(t *time.Time) Draft {
	n := d.clone()
	if t != nil {
		v := *t
		t = &v
	}
	n.record.ScheduledDate = t
	return n
}

// SetItemStatus returns a draft with one item's status changed.
func (d Draft) SetItemStatus(itemID int64, s model.ItemStatus) (Draft, error) {
	if !s.Valid() {
		return d, ErrInvalidItemState
	}
	return d.updateItem(itemID, func(it *model.TransferItem) {
		it.Status = s
	})
}

// SetDestination returns a draft with one item's destination sub-area changed.
func (d Draft) SetDestination(itemID int64, to *int64) (Draft, error) {
	if to != nil {
		v := *to
		to = &v
	}
	return d.updateItem(itemID, func(it *model.TransferItem) {
		it.ToSubAreaID = to
	})
}

// Attach returns a draft with item appended. An asset can be attached once.
func (d Draft) Attach(item model.TransferItem) (Draft, error) {
	for _, it := range d.items {
		if it.AssetID == item.AssetID {
			return d, ErrAlreadyAttached
		}
	}
	if item.Status == "" {
		item.Status = model.ItemPending
	}
	n := d.clone()
	n.items = append(n.items, item)
	return n, nil
}

// Detach returns a draft without the given item.
func (d Draft) Detach(itemID int64) (Draft, error) {
	idx := d.indexOf(itemID)
	if idx < 0 {
		return d, ErrUnknownItem
	}
	n := d.clone()
	n.items = append(n.items[:idx], n.items[idx+1:]...)
	return n, nil
}

func (d Draft) updateItem(itemID int64, fn func(*model.TransferItem)) (Draft, error) {
	idx := d.indexOf(itemID)
	if idx < 0 {
		return d, ErrUnknownItem
	}
	n := d.clone()
	fn(&n.items[idx])
	return n, nil
}

func (d Draft) indexOf(itemID int64) int {
	for i, it := range d.items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

func (d Draft) clone() Draft {
	return Draft{record: d.record, items: cloneItems(d.items)}
}

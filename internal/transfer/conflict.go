package transfer

import (
	"fmt"
	"strings"

	"github.com/erazemk/premik/internal/model"
)

// DetectConflict reports whether committing desired over items needs the
// caller's confirmation. It returns nil when the status can be committed
// directly. Items are never modified.
//
// An empty item list never conflicts, so a record without assets can be
// marked completed.
func DetectConflict(desired model.RecordStatus, items []model.TransferItem) *model.Conflict {
	if len(items) == 0 {
		return nil
	}

	pending := withStatus(items, model.ItemPending)

	switch desired {
	case model.RecordOverdue:
		if len(pending) == 0 {
			return newConflict(model.ConflictOverdueWithoutPending, desired, model.RecordCompleted, items)
		}
	case model.RecordCompleted:
		if len(pending) > 0 {
			return newConflict(model.ConflictCompleteWithPending, desired, model.RecordInProgress, pending)
		}
	case model.RecordCancelled:
		if len(pending) > 0 {
			return newConflict(model.ConflictCancelWithPending, desired, desired, pending)
		}
	case model.RecordPendingReview, model.RecordUpcoming:
		if transferred := withStatus(items, model.ItemTransferred); len(transferred) > 0 {
			return newConflict(model.ConflictRevertWithTransferred, desired, desired, transferred)
		}
	}
	return nil
}

// Consistent reports whether status can be committed over items without
// confirmation.
func Consistent(status model.RecordStatus, items []model.TransferItem) bool {
	return DetectConflict(status, items) == nil
}

func withStatus(items []model.TransferItem, status model.ItemStatus) []model.TransferItem {
	var out []model.TransferItem
	for _, it := range items {
		if it.Status == status {
			out = append(out, it)
		}
	}
	return out
}

func newConflict(kind model.ConflictKind, desired, resolved model.RecordStatus, items []model.TransferItem) *model.Conflict {
	assets := make([]model.ConflictingAsset, 0, len(items))
	for _, it := range items {
		assets = append(assets, model.ConflictingAsset{
			ItemID:    it.ID,
			AssetName: it.AssetName,
			Status:    it.Status,
		})
	}
	return &model.Conflict{
		Kind:           kind,
		DesiredStatus:  desired,
		ResolvedStatus: resolved,
		Assets:         assets,
	}
}

// Describe returns the warning shown to a user before they confirm c.
func Describe(c *model.Conflict) string {
	if c == nil {
		return ""
	}

	names := make([]string, 0, len(c.Assets))
	for _, a := range c.Assets {
		name := a.AssetName
		if name == "" {
			name = fmt.Sprintf("item %d", a.ItemID)
		}
		names = append(names, fmt.Sprintf("%s (%s)", name, a.Status))
	}
	list := strings.Join(names, ", ")

	switch c.Kind {
	case model.ConflictOverdueWithoutPending:
		return fmt.Sprintf("A transfer with no pending assets cannot be overdue. "+
			"Confirming marks it %s. Assets: %s.", c.ResolvedStatus, list)
	case model.ConflictCompleteWithPending:
		return fmt.Sprintf("%d asset(s) are still pending, so the transfer cannot be completed. "+
			"Confirming keeps it %s. Pending: %s.", len(c.Assets), c.ResolvedStatus, list)
	case model.ConflictCancelWithPending:
		return fmt.Sprintf("Cancelling the transfer also cancels %d pending asset(s): %s.",
			len(c.Assets), list)
	case model.ConflictRevertWithTransferred:
		return fmt.Sprintf("Setting the transfer to %s rolls back %d transferred asset(s) "+
			"to pending and clears their destination: %s.", c.ResolvedStatus, len(c.Assets), list)
	}
	return fmt.Sprintf("Status %s conflicts with assets: %s.", c.DesiredStatus, list)
}

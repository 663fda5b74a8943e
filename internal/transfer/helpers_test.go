package transfer

import (
	"fmt"
	"time"

	"github.com/erazemk/premik/internal/model"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// items builds transfer items with sequential IDs and asset names.
func items(statuses ...model.ItemStatus) []model.TransferItem {
	out := make([]model.TransferItem, len(statuses))
	for i, s := range statuses {
		out[i] = model.TransferItem{
			ID:          int64(i + 1),
			RecordID:    1,
			AssetID:     int64(100 + i),
			AssetName:   fmt.Sprintf("Asset %d", i+1),
			Status:      s,
			ToSubAreaID: ptr(int64(10 + i)),
		}
		if s == model.ItemTransferred {
			out[i].MovedAt = ptr(testNow.Add(-time.Hour))
		}
	}
	return out
}

// combinations returns every item list of length 1..maxLen over all item
// statuses.
func combinations(maxLen int) [][]model.TransferItem {
	all := []model.ItemStatus{model.ItemPending, model.ItemTransferred, model.ItemCancelled}
	var out [][]model.TransferItem
	var walk func(prefix []model.ItemStatus)
	walk = func(prefix []model.ItemStatus) {
		if len(prefix) > 0 {
			out = append(out, items(prefix...))
		}
		if len(prefix) == maxLen {
			return
		}
		for _, s := range all {
			next := append(append([]model.ItemStatus(nil), prefix...), s)
			walk(next)
		}
	}
	walk(nil)
	return out
}

func scheduleOptions() map[string]*time.Time {
	return map[string]*time.Time{
		"none":      nil,
		"yesterday": ptr(testNow.AddDate(0, 0, -1)),
		"today":     ptr(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)),
		"tomorrow":  ptr(testNow.AddDate(0, 0, 1)),
	}
}

func count(items []model.TransferItem, s model.ItemStatus) int {
	n := 0
	for _, it := range items {
		if it.Status == s {
			n++
		}
	}
	return n
}

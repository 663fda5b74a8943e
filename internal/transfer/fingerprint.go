package transfer

import (
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/erazemk/premik/internal/model"
)

// Fingerprint hashes the parts of a record snapshot that reconciliation
// decisions depend on: the record status and each item's status and
// destination. Item order does not matter; drafted items that have no ID
// yet are ordered by asset.
func Fingerprint(status model.RecordStatus, items []model.TransferItem) string {
	sorted := cloneItems(items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ID != sorted[j].ID {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].AssetID < sorted[j].AssetID
	})

	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "record:%s\n", status)
	for _, it := range sorted {
		to := int64(0)
		if it.ToSubAreaID != nil {
			to = *it.ToSubAreaID
		}
		fmt.Fprintf(h, "item:%d:%d:%s:%d\n", it.ID, it.AssetID, it.Status, to)
	}
	return hex.EncodeToString(h.Sum(nil))
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/transfer"
)

const recordColumns = `r.id, r.status, r.scheduled_date, r.remarks, r.created_at, r.updated_at`

const itemColumns = `ti.id, ti.record_id, ti.asset_id, ti.status, ti.from_sub_area_id, ti.to_sub_area_id,
        ti.moved_at, ti.remarks, a.name AS asset_name`

// CreateTransferRecord creates a transfer record in pending_review.
func CreateTransferRecord(ctx context.Context, db *sql.DB, scheduled *time.Time, remarks string) (*model.TransferRecord, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO transfer_records (status, scheduled_date, remarks) VALUES (?, ?, ?)`,
		string(model.RecordPendingReview), utc(scheduled), remarks,
	)
	if err != nil {
		return nil, fmt.Errorf("creating transfer record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting transfer record id: %w", err)
	}

	return GetTransferRecord(ctx, db, id)
}

// GetTransferRecord returns a transfer record with its items in attach order.
func GetTransferRecord(ctx context.Context, db *sql.DB, id int64) (*model.TransferRecord, error) {
	r, err := getRecord(ctx, db, id)
	if err != nil || r == nil {
		return r, err
	}

	items, err := loadItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	r.Items = items[id]
	return r, nil
}

// ListTransferRecords returns one page of transfer records matching filter,
// with their items, and the total number of matching records.
func ListTransferRecords(ctx context.Context, db *sql.DB, filter model.TransferFilter, sortBy model.TransferSort, dir model.SortDirection, page model.Page) ([]model.TransferRecord, int, error) {
	page = page.Normalize()

	where := ` WHERE 1=1`
	var args []any

	if filter.Status != "" {
		where += ` AND r.status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.AssetID > 0 {
		where += ` AND EXISTS (SELECT 1 FROM transfer_items ti WHERE ti.record_id = r.id AND ti.asset_id = ?)`
		args = append(args, filter.AssetID)
	}
	if filter.SubAreaID > 0 {
		where += ` AND EXISTS (SELECT 1 FROM transfer_items ti WHERE ti.record_id = r.id
		               AND (ti.from_sub_area_id = ? OR ti.to_sub_area_id = ?))`
		args = append(args, filter.SubAreaID, filter.SubAreaID)
	}
	if filter.ScheduledAfter != nil {
		where += ` AND r.scheduled_date >= ?`
		args = append(args, filter.ScheduledAfter.UTC())
	}
	if filter.ScheduledBefore != nil {
		where += ` AND r.scheduled_date < ?`
		args = append(args, filter.ScheduledBefore.UTC())
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transfer_records r`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting transfer records: %w", err)
	}

	query := `SELECT ` + recordColumns + ` FROM transfer_records r` + where +
		fmt.Sprintf(` ORDER BY %s %s, r.id %s LIMIT ? OFFSET ?`, sortBy.Column(), dir.SQL(), dir.SQL())
	args = append(args, page.Limit, page.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing transfer records: %w", err)
	}

	var records []model.TransferRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scanning transfer record: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, 0, fmt.Errorf("listing transfer records: %w", err)
	}
	rows.Close()

	if len(records) == 0 {
		return records, total, nil
	}

	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	items, err := loadItems(ctx, db, ids...)
	if err != nil {
		return nil, 0, err
	}
	for i := range records {
		records[i].Items = items[records[i].ID]
	}

	return records, total, nil
}

// UpdateTransferRecord updates a record's scheduled date and remarks.
func UpdateTransferRecord(ctx context.Context, db *sql.DB, id int64, scheduled *time.Time, remarks string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE transfer_records SET scheduled_date = ?, remarks = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		utc(scheduled), remarks, id,
	)
	if err != nil {
		return fmt.Errorf("updating transfer record: %w", err)
	}
	return requireAffected(result, "transfer record")
}

// AttachAsset attaches an asset to a transfer record as a pending item. The
// asset's current sub-area is recorded as the item's origin.
func AttachAsset(ctx context.Context, db *sql.DB, recordID, assetID int64, toSubAreaID *int64, remarks string) (*model.TransferItem, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	r, err := getRecord(ctx, tx, recordID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("transfer record %d: %w", recordID, ErrNotFound)
	}
	if r.Status == model.RecordCompleted || r.Status == model.RecordCancelled {
		return nil, fmt.Errorf("transfer is %s: %w", r.Status, ErrNotEditable)
	}

	var from *int64
	err = tx.QueryRowContext(ctx,
		`SELECT sub_area_id FROM assets WHERE id = ? AND deleted_at IS NULL`, assetID,
	).Scan(&from)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("asset %d: %w", assetID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking asset: %w", err)
	}

	var attached int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfer_items WHERE record_id = ? AND asset_id = ?`,
		recordID, assetID,
	).Scan(&attached)
	if err != nil {
		return nil, fmt.Errorf("checking attached assets: %w", err)
	}
	if attached > 0 {
		return nil, fmt.Errorf("asset %d on transfer %d: %w", assetID, recordID, ErrDuplicate)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO transfer_items (record_id, asset_id, status, from_sub_area_id, to_sub_area_id, remarks)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		recordID, assetID, string(model.ItemPending), from, toSubAreaID, remarks,
	)
	if err != nil {
		return nil, fmt.Errorf("attaching asset: %w", err)
	}

	if err := touchRecord(ctx, tx, recordID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing attach: %w", err)
	}

	itemID, _ := result.LastInsertId()
	return getItem(ctx, db, recordID, itemID)
}

// DetachItem removes an item from a transfer record. Only records still in
// pending_review can lose items.
func DetachItem(ctx context.Context, db *sql.DB, recordID, itemID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	r, err := getRecord(ctx, tx, recordID)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("transfer record %d: %w", recordID, ErrNotFound)
	}
	if r.Status != model.RecordPendingReview {
		return fmt.Errorf("transfer is %s: %w", r.Status, ErrNotEditable)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM transfer_items WHERE id = ? AND record_id = ?`, itemID, recordID,
	)
	if err != nil {
		return fmt.Errorf("detaching item: %w", err)
	}
	if err := requireAffected(result, "transfer item"); err != nil {
		return err
	}

	if err := touchRecord(ctx, tx, recordID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing detach: %w", err)
	}
	return nil
}

// CommitTransfer writes a reconciled record status and its items in a single
// transaction. When fingerprint is non-empty it must match the stored
// snapshot, otherwise ErrStaleSnapshot is returned and nothing is written.
//
// Assets follow their items: an item entering transferred moves the asset to
// its destination, an item leaving transferred returns it to its origin.
func CommitTransfer(ctx context.Context, db *sql.DB, recordID int64, status model.RecordStatus, items []model.TransferItem, fingerprint string) (*model.TransferRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid record status %q", status)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	r, err := getRecord(ctx, tx, recordID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("transfer record %d: %w", recordID, ErrNotFound)
	}

	stored, err := loadItems(ctx, tx, recordID)
	if err != nil {
		return nil, err
	}
	if fingerprint != "" && transfer.Fingerprint(r.Status, stored[recordID]) != fingerprint {
		return nil, fmt.Errorf("transfer record %d: %w", recordID, ErrStaleSnapshot)
	}

	prev := make(map[int64]model.TransferItem, len(stored[recordID]))
	for _, it := range stored[recordID] {
		prev[it.ID] = it
	}

	for _, it := range items {
		old, ok := prev[it.ID]
		if !ok {
			return nil, fmt.Errorf("item %d on transfer %d: %w", it.ID, recordID, ErrNotFound)
		}
		if !it.Status.Valid() {
			return nil, fmt.Errorf("invalid item status %q", it.Status)
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE transfer_items SET status = ?, to_sub_area_id = ?, moved_at = ?, remarks = ?
			 WHERE id = ? AND record_id = ?`,
			string(it.Status), it.ToSubAreaID, utc(it.MovedAt), it.Remarks, it.ID, recordID,
		)
		if err != nil {
			return nil, fmt.Errorf("updating transfer item %d: %w", it.ID, err)
		}

		var location *int64
		var move bool
		switch {
		case it.Status == model.ItemTransferred && old.Status != model.ItemTransferred && it.ToSubAreaID != nil:
			location, move = it.ToSubAreaID, true
		case old.Status == model.ItemTransferred && it.Status != model.ItemTransferred:
			location, move = old.FromSubAreaID, true
		}
		if move {
			if _, err := tx.ExecContext(ctx,
				`UPDATE assets SET sub_area_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				location, old.AssetID,
			); err != nil {
				return nil, fmt.Errorf("moving asset %d: %w", old.AssetID, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE transfer_records SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), recordID,
	); err != nil {
		return nil, fmt.Errorf("updating transfer status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer: %w", err)
	}

	return GetTransferRecord(ctx, db, recordID)
}

func getRecord(ctx context.Context, q queryer, id int64) (*model.TransferRecord, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM transfer_records r WHERE r.id = ?`, id,
	)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer record: %w", err)
	}
	return r, nil
}

func getItem(ctx context.Context, q queryer, recordID, itemID int64) (*model.TransferItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM transfer_items ti
		 JOIN assets a ON a.id = ti.asset_id
		 WHERE ti.id = ? AND ti.record_id = ?`, itemID, recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting transfer item: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// loadItems returns the items of the given records keyed by record ID.
func loadItems(ctx context.Context, q queryer, recordIDs ...int64) (map[int64][]model.TransferItem, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(recordIDs)), ",")
	args := make([]any, len(recordIDs))
	for i, id := range recordIDs {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM transfer_items ti
		 JOIN assets a ON a.id = ti.asset_id
		 WHERE ti.record_id IN (`+placeholders+`)
		 ORDER BY ti.record_id, ti.id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("loading transfer items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}

	byRecord := make(map[int64][]model.TransferItem)
	for _, it := range items {
		byRecord[it.RecordID] = append(byRecord[it.RecordID], it)
	}
	return byRecord, nil
}

func touchRecord(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE transfer_records SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("touching transfer record: %w", err)
	}
	return nil
}

func scanRecord(row scanner) (*model.TransferRecord, error) {
	r := &model.TransferRecord{}
	var remarks sql.NullString
	if err := row.Scan(&r.ID, &r.Status, &r.ScheduledDate, &remarks, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Remarks = remarks.String
	return r, nil
}

func scanItems(rows *sql.Rows) ([]model.TransferItem, error) {
	var items []model.TransferItem
	for rows.Next() {
		var it model.TransferItem
		var remarks sql.NullString
		if err := rows.Scan(&it.ID, &it.RecordID, &it.AssetID, &it.Status, &it.FromSubAreaID, &it.ToSubAreaID,
			&it.MovedAt, &remarks, &it.AssetName); err != nil {
			return nil, fmt.Errorf("scanning transfer item: %w", err)
		}
		it.Remarks = remarks.String
		items = append(items, it)
	}
	return items, rows.Err()
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/premik/internal/db"
	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/transfer"
)

type fixture struct {
	db       *sql.DB
	from, to *model.SubArea
	record   *model.TransferRecord
	assets   []*model.Asset
}

// newFixture creates a transfer with the given number of assets attached,
// all moving from one shelf to another.
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	from, _ := CreateSubArea(ctx, database, "Shelf A", "Lab 101")
	to, _ := CreateSubArea(ctx, database, "Bay 3", "Storage")
	record, err := CreateTransferRecord(ctx, database, nil, "semester move")
	if err != nil {
		t.Fatalf("CreateTransferRecord: %v", err)
	}

	f := &fixture{db: database, from: from, to: to, record: record}
	names := []string{"Microscope", "Projector", "Laptop", "Printer"}
	for i := 0; i < n; i++ {
		a, _ := CreateAsset(ctx, database, names[i], "", &from.ID)
		if _, err := AttachAsset(ctx, database, record.ID, a.ID, &to.ID, ""); err != nil {
			t.Fatalf("AttachAsset: %v", err)
		}
		f.assets = append(f.assets, a)
	}
	return f
}

func (f *fixture) load(t *testing.T) *model.TransferRecord {
	t.Helper()
	r, err := GetTransferRecord(context.Background(), f.db, f.record.ID)
	if err != nil || r == nil {
		t.Fatalf("GetTransferRecord: %v", err)
	}
	return r
}

func (f *fixture) assetLocation(t *testing.T, i int) *int64 {
	t.Helper()
	a, err := GetAsset(context.Background(), f.db, f.assets[i].ID)
	if err != nil || a == nil {
		t.Fatalf("GetAsset: %v", err)
	}
	return a.SubAreaID
}

func TestCreateTransferRecord(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	scheduled := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	record, err := CreateTransferRecord(ctx, database, &scheduled, "move lab")
	if err != nil {
		t.Fatalf("CreateTransferRecord: %v", err)
	}
	if record.Status != model.RecordPendingReview {
		t.Errorf("expected status pending_review, got %q", record.Status)
	}
	if record.ScheduledDate == nil || !record.ScheduledDate.Equal(scheduled) {
		t.Errorf("expected scheduled date %v, got %v", scheduled, record.ScheduledDate)
	}
	if record.Remarks != "move lab" {
		t.Errorf("expected remarks 'move lab', got %q", record.Remarks)
	}
}

func TestAttachAssetRecordsOrigin(t *testing.T) {
	f := newFixture(t, 2)
	r := f.load(t)

	if len(r.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(r.Items))
	}
	it := r.Items[0]
	if it.Status != model.ItemPending {
		t.Errorf("expected pending item, got %q", it.Status)
	}
	if it.FromSubAreaID == nil || *it.FromSubAreaID != f.from.ID {
		t.Errorf("expected origin %d, got %v", f.from.ID, it.FromSubAreaID)
	}
	if it.ToSubAreaID == nil || *it.ToSubAreaID != f.to.ID {
		t.Errorf("expected destination %d, got %v", f.to.ID, it.ToSubAreaID)
	}
	if it.AssetName != "Microscope" {
		t.Errorf("expected asset name 'Microscope', got %q", it.AssetName)
	}
}

func TestAttachAssetTwiceRejected(t *testing.T) {
	f := newFixture(t, 1)

	_, err := AttachAsset(context.Background(), f.db, f.record.ID, f.assets[0].ID, nil, "")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestAttachMissingAsset(t *testing.T) {
	f := newFixture(t, 0)

	_, err := AttachAsset(context.Background(), f.db, f.record.ID, 999, nil, "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDetachOnlyInPendingReview(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	r := f.load(t)

	if err := DetachItem(ctx, f.db, r.ID, r.Items[0].ID); err != nil {
		t.Fatalf("DetachItem: %v", err)
	}
	if got := f.load(t); len(got.Items) != 1 {
		t.Fatalf("expected 1 item after detach, got %d", len(got.Items))
	}

	if _, err := CommitTransfer(ctx, f.db, r.ID, model.RecordUpcoming, nil, ""); err != nil {
		t.Fatalf("CommitTransfer: %v", err)
	}

	err := DetachItem(ctx, f.db, r.ID, r.Items[1].ID)
	if !errors.Is(err, ErrNotEditable) {
		t.Errorf("expected ErrNotEditable after submission, got %v", err)
	}

	if err := DetachItem(ctx, f.db, r.ID, 999); !errors.Is(err, ErrNotEditable) && !errors.Is(err, ErrNotFound) {
		t.Errorf("expected an error detaching unknown item, got %v", err)
	}
}

func TestCommitTransferMovesAssets(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	r := f.load(t)

	snapshot := transfer.Fingerprint(r.Status, r.Items)

	items := append([]model.TransferItem(nil), r.Items...)
	now := time.Now()
	items[0].Status = model.ItemTransferred
	items[0].MovedAt = &now

	got, err := CommitTransfer(ctx, f.db, r.ID, model.RecordInProgress, items, snapshot)
	if err != nil {
		t.Fatalf("CommitTransfer: %v", err)
	}
	if got.Status != model.RecordInProgress {
		t.Errorf("expected status in_progress, got %q", got.Status)
	}
	if got.Items[0].Status != model.ItemTransferred || got.Items[0].MovedAt == nil {
		t.Errorf("expected first item transferred with moved_at, got %+v", got.Items[0])
	}

	if loc := f.assetLocation(t, 0); loc == nil || *loc != f.to.ID {
		t.Errorf("expected transferred asset at destination %d, got %v", f.to.ID, loc)
	}
	if loc := f.assetLocation(t, 1); loc == nil || *loc != f.from.ID {
		t.Errorf("expected pending asset at origin %d, got %v", f.from.ID, loc)
	}
}

func TestCommitTransferRejectsFingerprintOfEditedItems(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	r := f.load(t)

	items := append([]model.TransferItem(nil), r.Items...)
	items[0].Status = model.ItemTransferred

	// The fingerprint must describe what was loaded, not the edit.
	_, err := CommitTransfer(ctx, f.db, r.ID, model.RecordInProgress, items, transfer.Fingerprint(r.Status, items))
	if !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("expected ErrStaleSnapshot, got %v", err)
	}
	if loc := f.assetLocation(t, 0); loc == nil || *loc != f.from.ID {
		t.Errorf("rejected commit moved the asset")
	}
}

func TestCommitTransferRollbackReturnsAsset(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	r := f.load(t)

	r.Items[0].Status = model.ItemTransferred
	committed, err := CommitTransfer(ctx, f.db, r.ID, model.RecordInProgress, r.Items, "")
	if err != nil {
		t.Fatalf("CommitTransfer: %v", err)
	}

	// Revert to upcoming the way a confirmed conflict would.
	outcome := transfer.Reconcile(model.RecordUpcoming, committed.Items, time.Now())
	if outcome.Conflict == nil {
		t.Fatal("expected a revert conflict")
	}

	reverted, err := CommitTransfer(ctx, f.db, r.ID, outcome.Status, outcome.Items,
		transfer.Fingerprint(committed.Status, committed.Items))
	if err != nil {
		t.Fatalf("CommitTransfer revert: %v", err)
	}
	if reverted.Status != model.RecordUpcoming {
		t.Errorf("expected upcoming, got %q", reverted.Status)
	}
	if reverted.Items[0].Status != model.ItemPending || reverted.Items[0].ToSubAreaID != nil {
		t.Errorf("expected item rolled back with no destination, got %+v", reverted.Items[0])
	}
	if loc := f.assetLocation(t, 0); loc == nil || *loc != f.from.ID {
		t.Errorf("expected asset back at origin %d, got %v", f.from.ID, loc)
	}
}

func TestCommitTransferStaleSnapshot(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	r := f.load(t)
	stale := transfer.Fingerprint(r.Status, r.Items)

	// Someone else submits first.
	if _, err := CommitTransfer(ctx, f.db, r.ID, model.RecordUpcoming, nil, stale); err != nil {
		t.Fatalf("first CommitTransfer: %v", err)
	}

	r.Items[0].Status = model.ItemTransferred
	_, err := CommitTransfer(ctx, f.db, r.ID, model.RecordCompleted, r.Items, stale)
	if !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("expected ErrStaleSnapshot, got %v", err)
	}

	// Nothing was written.
	got := f.load(t)
	if got.Status != model.RecordUpcoming || got.Items[0].Status != model.ItemPending {
		t.Errorf("stale commit changed data: %+v", got)
	}
	if loc := f.assetLocation(t, 0); loc == nil || *loc != f.from.ID {
		t.Errorf("stale commit moved the asset")
	}
}

func TestCommitTransferUnknownItemRollsBack(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	r := f.load(t)

	items := append(append([]model.TransferItem(nil), r.Items...), model.TransferItem{ID: 999, Status: model.ItemTransferred})
	items[0].Status = model.ItemTransferred

	_, err := CommitTransfer(ctx, f.db, r.ID, model.RecordCompleted, items, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got := f.load(t)
	if got.Status != model.RecordPendingReview || got.Items[0].Status != model.ItemPending {
		t.Errorf("failed commit left partial changes: %+v", got)
	}
}

func TestListTransferRecordsFilterSortPage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	shelf, _ := CreateSubArea(ctx, database, "Shelf A", "Lab 101")
	microscope, _ := CreateAsset(ctx, database, "Microscope", "", &shelf.ID)
	laptop, _ := CreateAsset(ctx, database, "Laptop", "", nil)

	var ids []int64
	for i := 0; i < 5; i++ {
		day := time.Date(2026, 10, 10+i, 0, 0, 0, 0, time.UTC)
		r, _ := CreateTransferRecord(ctx, database, &day, "")
		ids = append(ids, r.ID)
	}
	AttachAsset(ctx, database, ids[0], microscope.ID, nil, "")
	AttachAsset(ctx, database, ids[1], microscope.ID, nil, "")
	AttachAsset(ctx, database, ids[1], laptop.ID, nil, "")
	CommitTransfer(ctx, database, ids[2], model.RecordCancelled, nil, "")

	all, total, err := ListTransferRecords(ctx, database, model.TransferFilter{}, model.SortByScheduledDate, model.SortAsc, model.Page{})
	if err != nil {
		t.Fatalf("ListTransferRecords: %v", err)
	}
	if total != 5 || len(all) != 5 {
		t.Fatalf("expected 5 records, got %d (total %d)", len(all), total)
	}
	if all[0].ID != ids[0] || all[4].ID != ids[4] {
		t.Errorf("expected ascending scheduled order, got first %d last %d", all[0].ID, all[4].ID)
	}
	if len(all[1].Items) != 2 {
		t.Errorf("expected items loaded with listing, got %d", len(all[1].Items))
	}

	byAsset, total, _ := ListTransferRecords(ctx, database, model.TransferFilter{AssetID: microscope.ID}, model.SortByID, model.SortDesc, model.Page{})
	if total != 2 || len(byAsset) != 2 || byAsset[0].ID != ids[1] {
		t.Errorf("expected 2 records for microscope newest first, got %v (total %d)", byAsset, total)
	}

	bySubArea, _, _ := ListTransferRecords(ctx, database, model.TransferFilter{SubAreaID: shelf.ID}, model.SortByID, model.SortAsc, model.Page{})
	if len(bySubArea) != 2 {
		t.Errorf("expected 2 records touching shelf, got %d", len(bySubArea))
	}

	cancelled, total, _ := ListTransferRecords(ctx, database, model.TransferFilter{Status: model.RecordCancelled}, model.SortByID, model.SortAsc, model.Page{})
	if total != 1 || cancelled[0].ID != ids[2] {
		t.Errorf("expected only the cancelled record, got %v", cancelled)
	}

	after := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	before := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	window, total, _ := ListTransferRecords(ctx, database, model.TransferFilter{ScheduledAfter: &after, ScheduledBefore: &before}, model.SortByID, model.SortAsc, model.Page{})
	if total != 2 || len(window) != 2 || window[0].ID != ids[2] {
		t.Errorf("expected records scheduled on the 12th and 13th, got %v (total %d)", window, total)
	}

	page, total, _ := ListTransferRecords(ctx, database, model.TransferFilter{}, model.SortByID, model.SortAsc, model.Page{Limit: 2, Offset: 2})
	if total != 5 || len(page) != 2 || page[0].ID != ids[2] {
		t.Errorf("expected second page starting at record %d, got %v (total %d)", ids[2], page, total)
	}
}

func TestGetAssetHistory(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	second, _ := CreateTransferRecord(ctx, f.db, nil, "")
	AttachAsset(ctx, f.db, second.ID, f.assets[0].ID, nil, "")

	history, err := GetAssetHistory(ctx, f.db, f.assets[0].ID)
	if err != nil {
		t.Fatalf("GetAssetHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].RecordID != second.ID {
		t.Errorf("expected newest transfer first, got record %d", history[0].RecordID)
	}
}

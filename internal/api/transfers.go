package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/erazemk/premik/internal/confirm"
	"github.com/erazemk/premik/internal/metrics"
	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
	"github.com/erazemk/premik/internal/transfer"
)

// TransfersHandler handles transfer record endpoints.
type TransfersHandler struct {
	DB            *sql.DB
	ConfirmSecret string
	Metrics       *metrics.Metrics

	// Now is the clock used for suggestions and move stamps. Defaults to time.Now.
	Now func() time.Time
}

// now returns the current time in UTC, the zone scheduled dates are stored
// in, so overdue checks compare the same calendar.
func (h *TransfersHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// transferView is a record as returned to clients, with the status its
// items currently imply and the snapshot fingerprint to submit against.
type transferView struct {
	model.TransferRecord
	SuggestedStatus model.RecordStatus `json:"suggested_status"`
	Fingerprint     string             `json:"fingerprint"`
}

func (h *TransfersHandler) view(rec *model.TransferRecord) transferView {
	return transferView{
		TransferRecord:  *rec,
		SuggestedStatus: transfer.SuggestStatus(rec.Items, rec.ScheduledDate, rec.Status, h.now()),
		Fingerprint:     transfer.Fingerprint(rec.Status, rec.Items),
	}
}

type transferRequest struct {
	ScheduledDate string `json:"scheduled_date"`
	Remarks       string `json:"remarks" validate:"max=1000"`
}

type attachRequest struct {
	AssetID     int64  `json:"asset_id" validate:"required,gt=0"`
	ToSubAreaID *int64 `json:"to_sub_area_id" validate:"omitempty,gt=0"`
	Remarks     string `json:"remarks" validate:"max=1000"`
}

// itemEdit changes one attached item in a draft.
type itemEdit struct {
	ID          int64            `json:"id" validate:"required,gt=0"`
	Status      model.ItemStatus `json:"status" validate:"omitempty,oneof=pending transferred cancelled"`
	ToSubAreaID *int64           `json:"to_sub_area_id" validate:"omitempty,gt=0"`
}

type previewRequest struct {
	Status        model.RecordStatus `json:"status" validate:"omitempty,oneof=pending_review upcoming in_progress completed overdue cancelled"`
	ScheduledDate *string            `json:"scheduled_date"`
	Items         []itemEdit         `json:"items" validate:"dive"`
	Attach        []int64            `json:"attach" validate:"dive,gt=0"`
	Detach        []int64            `json:"detach" validate:"dive,gt=0"`
}

type previewResponse struct {
	Status          model.RecordStatus   `json:"status"`
	SuggestedStatus model.RecordStatus   `json:"suggested_status"`
	Conflict        *model.Conflict      `json:"conflict,omitempty"`
	Message         string               `json:"message,omitempty"`
	Items           []model.TransferItem `json:"items"`
	Fingerprint     string               `json:"fingerprint"`
}

type submitRequest struct {
	Status   model.RecordStatus `json:"status" validate:"required,oneof=pending_review upcoming in_progress completed overdue cancelled"`
	Items    []itemEdit         `json:"items" validate:"dive"`
	Snapshot string             `json:"snapshot"`
	Token    string             `json:"token"`
}

type conflictResponse struct {
	Error     string          `json:"error"`
	Conflict  *model.Conflict `json:"conflict"`
	Message   string          `json:"message"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// List handles GET /api/transfers.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := parseTransferFilter(q)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	sortBy, err := model.ParseTransferSort(q.Get("sort"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	dir, err := model.ParseSortDirection(q.Get("dir"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := parsePage(q)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, total, err := store.ListTransferRecords(r.Context(), h.DB, filter, sortBy, dir, page)
	if err != nil {
		storeError(w, r, err, "failed to list transfers")
		return
	}

	views := make([]transferView, 0, len(records))
	for i := range records {
		views = append(views, h.view(&records[i]))
	}

	page = page.Normalize()
	jsonResponse(w, http.StatusOK, map[string]any{
		"transfers": views,
		"total":     total,
		"limit":     page.Limit,
		"offset":    page.Offset,
	})
}

func parseTransferFilter(q url.Values) (model.TransferFilter, error) {
	var f model.TransferFilter

	if v := q.Get("status"); v != "" {
		f.Status = model.RecordStatus(v)
		if !f.Status.Valid() {
			return f, errors.New("invalid status")
		}
	}

	var err error
	if f.AssetID, err = queryID(q, "asset_id"); err != nil {
		return f, err
	}
	if f.SubAreaID, err = queryID(q, "subarea_id"); err != nil {
		return f, err
	}
	if f.ScheduledAfter, err = parseOptionalDate(q.Get("scheduled_after")); err != nil {
		return f, errors.New("invalid scheduled_after")
	}
	if f.ScheduledBefore, err = parseOptionalDate(q.Get("scheduled_before")); err != nil {
		return f, errors.New("invalid scheduled_before")
	}
	return f, nil
}

func queryID(q url.Values, key string) (int64, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return id, nil
}

func parsePage(q url.Values) (model.Page, error) {
	var p model.Page
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, errors.New("invalid limit")
		}
		p.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, errors.New("invalid offset")
		}
		p.Offset = n
	}
	return p, nil
}

// Create handles POST /api/transfers.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	scheduled, err := parseOptionalDate(req.ScheduledDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid scheduled_date")
		return
	}

	rec, err := store.CreateTransferRecord(r.Context(), h.DB, scheduled, req.Remarks)
	if err != nil {
		storeError(w, r, err, "failed to create transfer")
		return
	}

	slog.Info("transfer created", "record", rec.ID, "scheduled", req.ScheduledDate)
	jsonResponse(w, http.StatusCreated, h.view(rec))
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, h.view(rec))
}

// Update handles PUT /api/transfers/{id}.
func (h *TransfersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "transfer")
	if !ok {
		return
	}

	var req transferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	scheduled, err := parseOptionalDate(req.ScheduledDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid scheduled_date")
		return
	}

	if err := store.UpdateTransferRecord(r.Context(), h.DB, id, scheduled, req.Remarks); err != nil {
		storeError(w, r, err, "failed to update transfer")
		return
	}

	h.Get(w, r)
}

// Attach handles POST /api/transfers/{id}/items.
func (h *TransfersHandler) Attach(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "transfer")
	if !ok {
		return
	}

	var req attachRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := store.AttachAsset(r.Context(), h.DB, id, req.AssetID, req.ToSubAreaID, req.Remarks)
	if err != nil {
		storeError(w, r, err, "failed to attach asset")
		return
	}

	slog.Info("asset attached", "record", id, "asset", item.AssetName, "item", item.ID)
	jsonResponse(w, http.StatusCreated, item)
}

// Detach handles DELETE /api/transfers/{id}/items/{itemID}.
func (h *TransfersHandler) Detach(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "transfer")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID", "item")
	if !ok {
		return
	}

	if err := store.DetachItem(r.Context(), h.DB, id, itemID); err != nil {
		storeError(w, r, err, "failed to detach item")
		return
	}

	slog.Info("item detached", "record", id, "item", itemID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item detached"})
}

// Preview handles POST /api/transfers/{id}/preview. It applies the edits
// to a draft and reports the suggestion and any conflict without writing.
func (h *TransfersHandler) Preview(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}

	var req previewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draft := transfer.NewDraft(*rec)

	if req.ScheduledDate != nil {
		scheduled, err := parseOptionalDate(*req.ScheduledDate)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid scheduled_date")
			return
		}
		draft = draft.SetScheduledDate(scheduled)
	}

	var err error
	for _, itemID := range req.Detach {
		if draft, err = draft.Detach(itemID); err != nil {
			storeError(w, r, err, "failed to preview transfer")
			return
		}
	}
	for _, assetID := range req.Attach {
		asset, err := store.GetAsset(r.Context(), h.DB, assetID)
		if err != nil {
			storeError(w, r, err, "failed to preview transfer")
			return
		}
		if asset == nil || asset.DeletedAt != nil {
			jsonError(w, http.StatusNotFound, "asset not found")
			return
		}
		draft, err = draft.Attach(model.TransferItem{
			RecordID:      rec.ID,
			AssetID:       asset.ID,
			AssetName:     asset.Name,
			FromSubAreaID: asset.SubAreaID,
		})
		if err != nil {
			storeError(w, r, err, "failed to preview transfer")
			return
		}
	}
	if draft, err = applyEdits(draft, req.Items); err != nil {
		storeError(w, r, err, "failed to preview transfer")
		return
	}

	if req.Status != "" {
		draft = draft.SetStatus(req.Status)
	}

	c := draft.Conflict(draft.Status())
	jsonResponse(w, http.StatusOK, previewResponse{
		Status:          draft.Status(),
		SuggestedStatus: draft.Suggested(h.now()),
		Conflict:        c,
		Message:         transfer.Describe(c),
		Items:           draft.Items(),
		Fingerprint:     transfer.Fingerprint(rec.Status, rec.Items),
	})
}

// Submit handles POST /api/transfers/{id}/submit.
//
// A desired status that conflicts with the items is answered with 409, the
// conflict and a confirmation token. Replaying the same request with the
// token applies the resolution and commits it.
func (h *TransfersHandler) Submit(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snapshot := transfer.Fingerprint(rec.Status, rec.Items)
	if req.Snapshot != "" && req.Snapshot != snapshot {
		h.Metrics.Submission(metrics.OutcomeStale)
		jsonError(w, http.StatusConflict, store.ErrStaleSnapshot.Error())
		return
	}

	draft, err := applyEdits(transfer.NewDraft(*rec), req.Items)
	if err != nil {
		h.Metrics.Submission(metrics.OutcomeRejected)
		storeError(w, r, err, "failed to submit transfer")
		return
	}

	now := h.now()
	proposal := transfer.Fingerprint(req.Status, draft.Items())
	outcome := transfer.Reconcile(req.Status, draft.Items(), now)

	if c := outcome.Conflict; c != nil {
		if req.Token == "" {
			h.Metrics.Submission(metrics.OutcomeConflict)
			h.writeConflict(w, r, rec.ID, c, proposal, now, "status conflicts with attached assets")
			return
		}
		if err := confirm.Verify(h.ConfirmSecret, req.Token, rec.ID, c, proposal); err != nil {
			slog.Warn("transfer confirmation rejected", "record", rec.ID, "error", err,
				"request_id", RequestID(r.Context()))
			h.Metrics.Submission(metrics.OutcomeRejected)
			h.writeConflict(w, r, rec.ID, c, proposal, now, "confirmation is invalid or expired")
			return
		}
	}

	committed, err := store.CommitTransfer(r.Context(), h.DB, rec.ID, outcome.Status, stampMoved(outcome.Items, now), snapshot)
	if err != nil {
		if errors.Is(err, store.ErrStaleSnapshot) {
			h.Metrics.Submission(metrics.OutcomeStale)
		}
		storeError(w, r, err, "failed to commit transfer")
		return
	}

	result := metrics.OutcomeCommitted
	if outcome.Conflict != nil {
		result = metrics.OutcomeConfirmed
	}
	h.Metrics.Submission(result)

	slog.Info("transfer submitted",
		"record", committed.ID,
		"desired", req.Status,
		"status", committed.Status,
		"items", len(committed.Items),
		"confirmed", outcome.Conflict != nil,
		"request_id", RequestID(r.Context()),
	)
	jsonResponse(w, http.StatusOK, h.view(committed))
}

func (h *TransfersHandler) writeConflict(w http.ResponseWriter, r *http.Request, recordID int64, c *model.Conflict, proposal string, now time.Time, msg string) {
	token, err := confirm.IssueToken(h.ConfirmSecret, recordID, c, proposal, now)
	if err != nil {
		storeError(w, r, err, "failed to issue confirmation")
		return
	}

	h.Metrics.Conflict(c.Kind)
	slog.Info("transfer conflict",
		"record", recordID,
		"kind", c.Kind,
		"desired", c.DesiredStatus,
		"resolved", c.ResolvedStatus,
		"assets", len(c.Assets),
		"request_id", RequestID(r.Context()),
	)

	jsonResponse(w, http.StatusConflict, conflictResponse{
		Error:     msg,
		Conflict:  c,
		Message:   transfer.Describe(c),
		Token:     token,
		ExpiresAt: now.Add(confirm.TokenExpiry).UTC(),
	})
}

// load fetches the record named by the {id} path parameter.
func (h *TransfersHandler) load(w http.ResponseWriter, r *http.Request) (*model.TransferRecord, bool) {
	id, ok := pathID(w, r, "id", "transfer")
	if !ok {
		return nil, false
	}

	rec, err := store.GetTransferRecord(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "failed to get transfer")
		return nil, false
	}
	if rec == nil {
		jsonError(w, http.StatusNotFound, "transfer not found")
		return nil, false
	}
	return rec, true
}

func applyEdits(d transfer.Draft, edits []itemEdit) (transfer.Draft, error) {
	var err error
	for _, e := range edits {
		if e.Status != "" {
			if d, err = d.SetItemStatus(e.ID, e.Status); err != nil {
				return d, err
			}
		}
		if e.ToSubAreaID != nil {
			if d, err = d.SetDestination(e.ID, e.ToSubAreaID); err != nil {
				return d, err
			}
		}
	}
	return d, nil
}

// stampMoved sets MovedAt on transferred items that were never stamped.
func stampMoved(items []model.TransferItem, now time.Time) []model.TransferItem {
	for i := range items {
		if items[i].Status == model.ItemTransferred && items[i].MovedAt == nil {
			t := now
			items[i].MovedAt = &t
		}
	}
	return items
}

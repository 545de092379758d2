package archive

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mturk-tools/internal/paystats"
	"mturk-tools/internal/results"
	"mturk-tools/internal/shared/server/middleware"
	"mturk-tools/internal/shared/server/respond"
	"mturk-tools/internal/shared/util"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Handler serves archived batches and events read-only.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches archive routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/batches", h.listBatches)
	rg.GET("/batches/:id", h.getBatch)
	rg.GET("/batches/:id/rows", h.listRows)
	rg.GET("/batches/:id/results.tsv", h.downloadTable)
	rg.GET("/batches/:id/stats", h.batchStats)
	rg.GET("/hits/:id/events", h.listEvents)
}

func (h *Handler) listBatches(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}
	batches, err := h.Repo.ListBatches(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list batches", nil)
		return
	}
	items := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		items = append(items, toBatchResponse(b))
	}
	respond.List(c, items, limit, offset)
}

func (h *Handler) getBatch(c *gin.Context) {
	b, ok := h.loadBatch(c)
	if !ok {
		return
	}
	respond.OK(c, toBatchResponse(b))
}

func (h *Handler) listRows(c *gin.Context) {
	b, ok := h.loadBatch(c)
	if !ok {
		return
	}
	rows, err := h.Repo.ListRows(c.Request.Context(), b.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list rows", nil)
		return
	}
	items := make([]RowResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, toRowResponse(r))
	}
	respond.List(c, items, len(items), 0)
}

func (h *Handler) downloadTable(c *gin.Context) {
	b, ok := h.loadBatch(c)
	if !ok {
		return
	}
	rows, err := h.Repo.ListRows(c.Request.Context(), b.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list rows", nil)
		return
	}
	var buf bytes.Buffer
	if err := results.WriteTable(&buf, b.Columns, fieldsOf(rows)); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render table", nil)
		return
	}
	name, err := util.SanitizeName(b.Name + ".results")
	if err != nil {
		name = b.ID + ".results"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/tab-separated-values; charset=utf-8", buf.Bytes())
}

func (h *Handler) batchStats(c *gin.Context) {
	pay, err := strconv.ParseFloat(c.Query("pay"), 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "pay must be a number", []map[string]string{
			{"field": "pay", "issue": "invalid"},
		})
		return
	}
	opts := paystats.Options{
		Pay:            pay,
		RemoveRejected: queryBool(c, "removeRejected"),
		RemoveOutliers: queryBool(c, "removeOutliers"),
	}

	b, ok := h.loadBatch(c)
	if !ok {
		return
	}
	rows, err := h.Repo.ListRows(c.Request.Context(), b.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list rows", nil)
		return
	}
	records, err := paystats.RecordsFromRows(fieldsOf(rows))
	if err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "invalid_timestamps", err.Error(), nil)
		return
	}

	report, err := paystats.Analyze(records, opts)
	if err != nil {
		var missing *paystats.MissingTimestampError
		var invalid *paystats.InvalidDurationError
		switch {
		case errors.Is(err, paystats.ErrInvalidPay):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), []map[string]string{
				{"field": "pay", "issue": "must_be_positive"},
			})
		case errors.Is(err, paystats.ErrNoSamples), errors.As(err, &missing):
			respond.Error(c, http.StatusUnprocessableEntity, "no_samples", err.Error(), nil)
		case errors.Is(err, paystats.ErrDegenerateSample), errors.As(err, &invalid):
			respond.Error(c, http.StatusUnprocessableEntity, "degenerate_sample", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to analyze batch", nil)
		}
		return
	}
	respond.OK(c, toStatsResponse(report))
}

func (h *Handler) listEvents(c *gin.Context) {
	hitID := c.Param("id")
	events, err := h.Repo.ListEvents(c.Request.Context(), hitID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list events", nil)
		return
	}
	items := make([]EventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, toEventResponse(e))
	}
	respond.List(c, items, len(items), 0)
}

func (h *Handler) loadBatch(c *gin.Context) (Batch, bool) {
	id := c.Param("id")
	c.Set(middleware.BatchIDKey, id)
	b, err := h.Repo.GetBatch(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "batch not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch batch", nil)
		}
		return Batch{}, false
	}
	return b, true
}

func pageParams(c *gin.Context) (int, int, bool) {
	limit, offset := defaultListLimit, 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer", nil)
			return 0, 0, false
		}
		limit = min(parsed, maxListLimit)
	}
	if v := c.Query("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "offset must be a non-negative integer", nil)
			return 0, 0, false
		}
		offset = parsed
	}
	return limit, offset, true
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

func fieldsOf(rows []StoredRow) []results.Row {
	out := make([]results.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Fields
	}
	return out
}

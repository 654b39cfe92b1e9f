package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/verdantlabs/esgtrack/pkg/csvio"
	"github.com/verdantlabs/esgtrack/pkg/dashboard"
	"github.com/verdantlabs/esgtrack/pkg/esg"
	"github.com/verdantlabs/esgtrack/pkg/httpx"
	"github.com/verdantlabs/esgtrack/pkg/store"
)

// Handler translates HTTP requests into validator/store/pipeline calls and
// maps their outcomes onto the response envelope. No business logic lives
// here.
type Handler struct {
	store          *store.Store
	hub            *Hub
	log            *zap.Logger
	maxUploadBytes int64
	devMode        bool
}

// NewHandler wires a handler to its collaborators. hub may be nil when live
// dashboard updates are not needed (tests).
func NewHandler(st *store.Store, hub *Hub, log *zap.Logger, maxUploadBytes int64, devMode bool) *Handler {
	return &Handler{
		store:          st,
		hub:            hub,
		log:            log,
		maxUploadBytes: maxUploadBytes,
		devMode:        devMode,
	}
}

// HandleListMetrics handles GET /api/metrics with an optional category
// filter. An unknown category simply matches nothing.
func (h *Handler) HandleListMetrics(w http.ResponseWriter, r *http.Request) {
	var metrics []esg.Metric
	if category := r.URL.Query().Get("category"); category != "" {
		metrics = h.store.ListByCategory(esg.Category(category))
	} else {
		metrics = h.store.ListAll()
	}
	httpx.OK(w, metrics)
}

// HandleCreateMetric handles POST /api/metrics.
func (h *Handler) HandleCreateMetric(w http.ResponseWriter, r *http.Request) {
	var in esg.MetricInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.FailDetails(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	if errs := esg.ValidateInput(in); len(errs) > 0 {
		httpx.FailDetails(w, http.StatusBadRequest, "Validation failed", errs)
		return
	}

	m := h.store.Create(in)
	h.log.Info("metric created", zap.String("id", m.ID), zap.String("category", string(m.Category)))
	h.notifyDashboard()
	httpx.Created(w, m)
}

// HandleUpdateMetric handles PUT /api/metrics/{id}. Only supplied fields
// change; an empty patch is a no-op.
func (h *Handler) HandleUpdateMetric(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch esg.MetricPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.FailDetails(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	if errs := esg.ValidatePatch(patch); len(errs) > 0 {
		httpx.FailDetails(w, http.StatusBadRequest, "Validation failed", errs)
		return
	}

	m, err := h.store.Update(id, patch)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Fail(w, http.StatusNotFound, "Metric not found")
		return
	}

	h.log.Info("metric updated", zap.String("id", id))
	h.notifyDashboard()
	httpx.OK(w, m)
}

// HandleDeleteMetric handles DELETE /api/metrics/{id}.
func (h *Handler) HandleDeleteMetric(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.Remove(id); errors.Is(err, store.ErrNotFound) {
		httpx.Fail(w, http.StatusNotFound, "Metric not found")
		return
	}

	h.log.Info("metric deleted", zap.String("id", id))
	h.notifyDashboard()
	httpx.OKMessage(w, "Metric deleted successfully")
}

// HandleDashboard handles GET /api/dashboard. The aggregate is recomputed
// from the live collection on every call.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, dashboard.Snapshot(h.store.ListAll()))
}

// HandleImportCSV handles POST /api/import/csv. One malformed row never
// aborts the batch; a structurally unreadable stream does.
func (h *Handler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()
	// Large uploads spill to disk; release the temp files on every exit path.
	defer func() {
		if r.MultipartForm != nil {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				h.log.Warn("remove upload temp files", zap.Error(err))
			}
		}
	}()

	if !isCSVUpload(header) {
		httpx.Fail(w, http.StatusBadRequest, "Only CSV files are allowed")
		return
	}

	res, err := csvio.Import(file, h.store)
	if err != nil {
		h.log.Error("CSV import failed", zap.Error(err))
		h.internalError(w, "Failed to parse CSV file", err)
		return
	}

	if len(res.Metrics) == 0 && len(res.Skipped) > 0 {
		httpx.FailDetails(w, http.StatusBadRequest, "Failed to import CSV data", res.Skipped)
		return
	}

	h.log.Info("CSV import completed",
		zap.Int("imported", len(res.Metrics)),
		zap.Int("skipped", len(res.Skipped)))
	if len(res.Metrics) > 0 {
		h.notifyDashboard()
	}

	resp := httpx.Response{
		Success: true,
		Data:    res.Metrics,
		Message: fmt.Sprintf("Successfully imported %d metrics", len(res.Metrics)),
	}
	if len(res.Skipped) > 0 {
		resp.Details = res.Skipped
	}
	httpx.RespondJSON(w, http.StatusOK, resp)
}

// HandleExportCSV handles GET /api/export/csv. The export is materialized
// into a temp file first so a pipeline failure still yields a clean 500
// instead of a truncated download; the file is removed on every exit path.
func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	tmp, err := os.CreateTemp("", "esg-metrics-*.csv")
	if err != nil {
		h.log.Error("create export temp file", zap.Error(err))
		h.internalError(w, "Failed to export CSV", err)
		return
	}
	defer func() {
		tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil {
			h.log.Warn("remove export temp file", zap.Error(err))
		}
	}()

	metrics := h.store.ListAll()
	if err := csvio.Export(tmp, metrics); err != nil {
		h.log.Error("CSV export failed", zap.Error(err))
		h.internalError(w, "Failed to export CSV", err)
		return
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		h.internalError(w, "Failed to export CSV", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=esg-metrics.csv`)
	if _, err := io.Copy(w, tmp); err != nil {
		h.log.Warn("stream CSV export", zap.Error(err))
	}
	h.log.Info("CSV export completed", zap.Int("metrics", len(metrics)))
}

// HandleListUsers handles GET /api/users.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, h.store.ListUsers())
}

// HandleHealth handles GET /health. Note: not wrapped in the envelope.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "ESG Data Management API is running",
	})
}

// internalError hides failure details unless the server runs in dev mode.
func (h *Handler) internalError(w http.ResponseWriter, label string, err error) {
	if h.devMode {
		httpx.FailDetails(w, http.StatusInternalServerError, label, err.Error())
		return
	}
	httpx.Fail(w, http.StatusInternalServerError, label)
}

// notifyDashboard pushes the refreshed summary to live dashboard clients.
func (h *Handler) notifyDashboard() {
	if h.hub == nil {
		return
	}
	h.hub.BroadcastSummary(dashboard.Snapshot(h.store.ListAll()).Summary)
}

// isCSVUpload accepts text/csv uploads or anything named *.csv; browsers and
// CLI clients disagree on the MIME type they attach.
func isCSVUpload(header *multipart.FileHeader) bool {
	ct := header.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "text/csv") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(header.Filename), ".csv")
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rtodesk/rto-records/internal/dates"
	"github.com/rtodesk/rto-records/internal/db"
	"github.com/rtodesk/rto-records/internal/lifecycle"
	"github.com/rtodesk/rto-records/internal/middleware"
	"github.com/rtodesk/rto-records/internal/models"
	"github.com/rtodesk/rto-records/internal/records"
)

// RecordHandler handles record CRUD and renewal requests
type RecordHandler struct {
	service *records.Service
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(service *records.Service) *RecordHandler {
	return &RecordHandler{service: service}
}

// Collection handles /api/records: GET lists records, POST creates a new
// record, retiring any prior non-renewed record for the same vehicle and
// kind.
func (h *RecordHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RecordHandler) list(w http.ResponseWriter, r *http.Request) {
	if !hasPermission(r, "view_records") {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	query := r.URL.Query()
	filter := records.ListFilter{
		Kind:           models.RecordKind(query.Get("kind")),
		VehicleNo:      query.Get("vehicle_no"),
		Status:         models.Status(query.Get("status")),
		IncludeRenewed: query.Get("include_renewed") == "true",
	}

	results, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *RecordHandler) create(w http.ResponseWriter, r *http.Request) {
	if !hasPermission(r, "create_record") {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	var req models.CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	created, err := h.service.Renew(r.Context(), req)
	if err != nil {
		writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Expiring handles /api/records/expiring: the expiring-soon active heads,
// optionally narrowed to one kind.
func (h *RecordHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !hasPermission(r, "view_records") {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	results, err := h.service.Expiring(r.Context(), models.RecordKind(r.URL.Query().Get("kind")))
	if err != nil {
		writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Chain handles /api/records/chain: the full renewal history for one
// vehicle and kind, newest first.
func (h *RecordHandler) Chain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !hasPermission(r, "view_records") {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	query := r.URL.Query()
	results, err := h.service.Chain(r.Context(),
		models.RecordKind(query.Get("kind")), query.Get("vehicle_no"))
	if err != nil {
		writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Item handles /api/records/{id}: GET, PUT and DELETE on a single record.
func (h *RecordHandler) Item(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Record not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !hasPermission(r, "view_records") {
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
			return
		}
		record, err := h.service.Get(r.Context(), id)
		if err != nil {
			writeRecordError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)

	case http.MethodPut:
		if !hasPermission(r, "update_record") {
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
			return
		}
		var req models.UpdateRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		record, err := h.service.Update(r.Context(), id, req)
		if err != nil {
			writeRecordError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)

	case http.MethodDelete:
		if !hasPermission(r, "delete_record") {
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
			return
		}
		if err := h.service.Delete(r.Context(), id); err != nil {
			writeRecordError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Record deleted"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// hasPermission checks the authenticated user's permission for an action.
func hasPermission(r *http.Request, action string) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return false
	}
	user := &models.User{Role: claims.Role}
	return user.HasPermission(action)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRecordError maps service errors to HTTP status codes: validation
// failures are caller-correctable (400), a missing record is 404, and an
// incomplete renewal is a server-side consistency failure (500).
func writeRecordError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrMissingFeeFields),
		errors.Is(err, lifecycle.ErrNegativeAmount),
		errors.Is(err, lifecycle.ErrOverpayment),
		errors.Is(err, lifecycle.ErrNegativeBalance),
		errors.Is(err, dates.ErrInvalidDateFormat),
		errors.Is(err, records.ErrInvalidDateRange),
		errors.Is(err, records.ErrUnknownKind),
		errors.Is(err, records.ErrMissingVehicleNo):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, db.ErrRecordNotFound):
		http.Error(w, "Record not found", http.StatusNotFound)
	case errors.Is(err, records.ErrRenewalIncomplete):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

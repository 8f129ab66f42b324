package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	nuts "github.com/vaudience/go-nuts"
)

// ErrorType classifies write-back API failures.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeUnavailable ErrorType = "service_unavailable"
	ErrorTypeDatabase    ErrorType = "database"
	ErrorTypeInternal    ErrorType = "internal"
)

// APIError is a structured error surfaced to write-back callers.
type APIError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	err       error
}

func (e *APIError) Error() string {
	if e.err != nil {
		return string(e.Type) + ": " + e.Message + " (" + e.err.Error() + ")"
	}
	return string(e.Type) + ": " + e.Message
}

func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

func NewValidationError(msg string, err error) *APIError {
	return &APIError{Type: ErrorTypeValidation, Message: msg, Code: http.StatusBadRequest, err: err}
}

func NewUnavailableError(msg string, err error) *APIError {
	return &APIError{Type: ErrorTypeUnavailable, Message: msg, Code: http.StatusServiceUnavailable, err: err}
}

func NewDatabaseError(msg string, err error) *APIError {
	return &APIError{Type: ErrorTypeDatabase, Message: msg, Code: http.StatusInternalServerError, err: err}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, apiErr *APIError) {
	log.Printf("api error: %v", apiErr)
	respondWithJSON(w, apiErr.Code, map[string]any{"success": false, "error": apiErr})
}

// APIHandlers exposes the write-back endpoints. Storage failures are
// surfaced synchronously and never retried here.
type APIHandlers struct {
	store    RecordStore
	validate *validator.Validate
}

func NewAPIHandlers(store RecordStore) *APIHandlers {
	return &APIHandlers{
		store:    store,
		validate: validator.New(),
	}
}

// Numeric fields are pointers so that zero values still pass "required".
type checkBusRequest struct {
	BusNo            string   `json:"busNo" validate:"required"`
	RouteNo          string   `json:"routeNo" validate:"required"`
	NonTicketHolders *int     `json:"nonTicketHolders" validate:"required"`
	FineCollected    *float64 `json:"fineCollected" validate:"required"`
}

type recordAttendanceRequest struct {
	BusNo         string `json:"busNo" validate:"required"`
	ConductorName string `json:"conductorName" validate:"required"`
}

// CheckBus upserts one ticket-check record per bus per calendar day.
func (h *APIHandlers) CheckBus(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req checkBusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, NewValidationError("missing required fields", err).WithRequestID(requestID))
		return
	}

	now := time.Now()
	rec := CheckRecord{
		BusNo:            req.BusNo,
		RouteNo:          req.RouteNo,
		NonTicketHolders: *req.NonTicketHolders,
		FineCollected:    *req.FineCollected,
		CheckDate:        localCheckDate(now),
		CheckedAt:        now,
	}
	result, err := h.store.UpsertCheck(r.Context(), rec)
	if err != nil {
		if isStorageUnavailable(err) {
			respondWithError(w, NewUnavailableError("storage unavailable", err).WithRequestID(requestID))
			return
		}
		respondWithError(w, NewDatabaseError("failed to record bus check", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

// RecordAttendance inserts one attendance record per call.
func (h *APIHandlers) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req recordAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, NewValidationError("missing required fields", err).WithRequestID(requestID))
		return
	}

	rec := AttendanceRecord{
		BusNo:         req.BusNo,
		ConductorName: req.ConductorName,
		RecordedAt:    time.Now(),
	}
	result, err := h.store.InsertAttendance(r.Context(), rec)
	if err != nil {
		if isStorageUnavailable(err) {
			respondWithError(w, NewUnavailableError("storage unavailable", err).WithRequestID(requestID))
			return
		}
		respondWithError(w, NewDatabaseError("failed to record attendance", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

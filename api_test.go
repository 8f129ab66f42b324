package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// memStore implements the per-day upsert contract in memory.
type memStore struct {
	checks     map[string]CheckRecord // keyed by busNo + "|" + checkDate
	attendance []AttendanceRecord
	err        error
}

func newMemStore() *memStore {
	return &memStore{checks: make(map[string]CheckRecord)}
}

func (s *memStore) UpsertCheck(ctx context.Context, rec CheckRecord) (CheckRecord, error) {
	if s.err != nil {
		return CheckRecord{}, s.err
	}
	rec.Checked = true
	s.checks[rec.BusNo+"|"+rec.CheckDate] = rec
	return rec, nil
}

func (s *memStore) InsertAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error) {
	if s.err != nil {
		return AttendanceRecord{}, s.err
	}
	s.attendance = append(s.attendance, rec)
	return rec, nil
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestCheckBusUpsertsOncePerDay(t *testing.T) {
	store := newMemStore()
	h := NewAPIHandlers(store)

	w := postJSON(t, h.CheckBus, `{"busNo":"DL1PC1234","routeNo":"764","nonTicketHolders":5,"fineCollected":2500}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body)
	}
	var resp struct {
		Success bool        `json:"success"`
		Result  CheckRecord `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || !resp.Result.Checked {
		t.Errorf("unexpected response: %+v", resp)
	}

	// Second check for the same bus on the same day updates, not inserts.
	w = postJSON(t, h.CheckBus, `{"busNo":"DL1PC1234","routeNo":"764","nonTicketHolders":8,"fineCollected":4000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("second status = %d, want 200", w.Code)
	}
	if len(store.checks) != 1 {
		t.Fatalf("checks = %d records, want 1 (upsert)", len(store.checks))
	}
	for _, rec := range store.checks {
		if rec.NonTicketHolders != 8 || rec.FineCollected != 4000 {
			t.Errorf("record not updated: %+v", rec)
		}
	}
}

func TestCheckBusZeroValuesAreValid(t *testing.T) {
	h := NewAPIHandlers(newMemStore())
	w := postJSON(t, h.CheckBus, `{"busNo":"DL1","routeNo":"1","nonTicketHolders":0,"fineCollected":0}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for explicit zero values; body %s", w.Code, w.Body)
	}
}

func TestCheckBusMissingFields(t *testing.T) {
	store := newMemStore()
	h := NewAPIHandlers(store)

	tests := []struct {
		name string
		body string
	}{
		{"missing busNo", `{"routeNo":"764","nonTicketHolders":5,"fineCollected":100}`},
		{"missing routeNo", `{"busNo":"DL1","nonTicketHolders":5,"fineCollected":100}`},
		{"missing nonTicketHolders", `{"busNo":"DL1","routeNo":"764","fineCollected":100}`},
		{"missing fineCollected", `{"busNo":"DL1","routeNo":"764","nonTicketHolders":5}`},
		{"not json", `this is not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h.CheckBus, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
	if len(store.checks) != 0 {
		t.Errorf("no write must be attempted on validation failure, got %d", len(store.checks))
	}
}

func TestRecordAttendance(t *testing.T) {
	store := newMemStore()
	h := NewAPIHandlers(store)

	// No dedup: two calls, two records.
	for i := 0; i < 2; i++ {
		w := postJSON(t, h.RecordAttendance, `{"busNo":"DL1PC1234","conductorName":"R. Sharma"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body)
		}
	}
	if len(store.attendance) != 2 {
		t.Errorf("attendance = %d records, want 2 (insert, no dedup)", len(store.attendance))
	}
}

func TestRecordAttendanceMissingConductor(t *testing.T) {
	store := newMemStore()
	h := NewAPIHandlers(store)

	w := postJSON(t, h.RecordAttendance, `{"busNo":"DL1PC1234"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(store.attendance) != 0 {
		t.Errorf("no record must be written, got %d", len(store.attendance))
	}
}

func TestStorageUnavailableReturns503(t *testing.T) {
	store := newMemStore()
	store.err = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	h := NewAPIHandlers(store)

	w := postJSON(t, h.CheckBus, `{"busNo":"DL1","routeNo":"1","nonTicketHolders":1,"fineCollected":1}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("checkBus status = %d, want 503", w.Code)
	}
	w = postJSON(t, h.RecordAttendance, `{"busNo":"DL1","conductorName":"X"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("recordAttendance status = %d, want 503", w.Code)
	}
}

func TestStorageErrorReturns500(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("constraint violation")
	h := NewAPIHandlers(store)

	w := postJSON(t, h.CheckBus, `{"busNo":"DL1","routeNo":"1","nonTicketHolders":1,"fineCollected":1}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

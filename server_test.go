package main

import (
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouterIndexAndHealth(t *testing.T) {
	cell := NewSnapshotCell()
	cell.Replace([]Vehicle{{BusNo: "DL1", RouteNo: "764", Latitude: 28.61, Longitude: 77.20}})
	hub := newHub(NewClientRegistry(), cell, nil, 14)
	api := NewAPIHandlers(newMemStore())
	tmpl := template.Must(template.New("index").Parse(
		`<script>var buses = {{.Buses}}; var stops = {{.Stops}};</script>`))

	srv := httptest.NewServer(newRouter(hub, api, cell, tmpl))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("index status = %d, want 200", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, "DL1") {
		t.Errorf("index should embed the current snapshot, got %q", body)
	}
	// The initial page always renders with an empty stop list.
	if !strings.Contains(body, "var stops = [];") {
		t.Errorf("index should embed an empty stop list, got %q", body)
	}
}

func TestRouterMethodRestrictions(t *testing.T) {
	cell := NewSnapshotCell()
	hub := newHub(NewClientRegistry(), cell, nil, 14)
	api := NewAPIHandlers(newMemStore())
	tmpl := template.Must(template.New("index").Parse(`ok`))

	srv := httptest.NewServer(newRouter(hub, api, cell, tmpl))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/checkBus")
	if err != nil {
		t.Fatalf("get checkBus: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/checkBus status = %d, want 405", resp.StatusCode)
	}
}

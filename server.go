package main

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

func newRouter(hub *wsHub, api *APIHandlers, cell *SnapshotCell, indexTmpl *template.Template) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", func(w http.ResponseWriter, req *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/checkBus", api.CheckBus).Methods(http.MethodPost)
	r.HandleFunc("/api/recordAttendance", api.RecordAttendance).Methods(http.MethodPost)

	r.HandleFunc("/ws", hub.handleWebSocket)

	fs := http.FileServer(http.Dir("./static"))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", fs))

	// The initial page always renders with an empty stop list; the first
	// live push corrects it once the viewer reports its zoom.
	r.Handle("/", withLogging(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		buses := cell.Current()
		if buses == nil {
			buses = []Vehicle{}
		}
		busesJSON, err := json.Marshal(buses)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		data := struct {
			Buses template.JS
			Stops template.JS
		}{
			Buses: template.JS(busesJSON),
			Stops: template.JS("[]"),
		}
		if err := indexTmpl.Execute(w, data); err != nil {
			log.Printf("render index: %v", err)
		}
	}))).Methods(http.MethodGet)

	return r
}

func withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		h.ServeHTTP(w, r)
	})
}

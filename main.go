package main

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	stops, err := loadStops(cfg.Stops.File)
	if err != nil {
		log.Fatalf("stops catalog error: %v", err)
	}
	log.Printf("loaded %d bus stops from %s", len(stops), cfg.Stops.File)

	store, err := connectStore(cfg.Database)
	if err != nil {
		log.Fatalf("storage error: %v", err)
	}
	defer store.Close()

	indexTmpl, err := template.ParseFiles("templates/index.html")
	if err != nil {
		log.Fatalf("index template error: %v", err)
	}

	cell := NewSnapshotCell()
	registry := NewClientRegistry()
	hub := newHub(registry, cell, stops, cfg.Stops.ZoomThreshold)
	poll := newPoller(selectFeed(cfg.Feed), cell, hub, cfg.Feed)
	api := NewAPIHandlers(store)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           newRouter(hub, api, cell, indexTmpl),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("server starting on http://localhost:%d/", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	pctx, pcancel := context.WithCancel(context.Background())
	go poll.run(pctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("shutdown initiated...")

	pcancel()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Printf("HTTP server shut down successfully")
	}
}

func selectFeed(cfg FeedConfig) VehicleFeedSource {
	switch cfg.Format {
	case "siri-xml":
		return NewSiriXmlVehicleFeedSource(cfg.URL, cfg.FetchTimeout)
	case "siri-json":
		return NewSiriJsonVehicleFeedSource(cfg.URL, cfg.FetchTimeout)
	default:
		return NewGtfsRtVehicleFeedSource(cfg.URL, cfg.APIKey, cfg.FetchTimeout)
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// VehicleFeedSource fetches the upstream feed and normalizes it.
type VehicleFeedSource interface {
	Fetch(ctx context.Context) ([]Vehicle, error)
}

type GtfsRtVehicleFeedSource struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewGtfsRtVehicleFeedSource(feedURL, apiKey string, timeout time.Duration) *GtfsRtVehicleFeedSource {
	return &GtfsRtVehicleFeedSource{
		url:        feedURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *GtfsRtVehicleFeedSource) Fetch(ctx context.Context) ([]Vehicle, error) {
	target := s.url
	if s.apiKey != "" {
		sep := "?"
		if u, err := url.Parse(target); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		target = target + sep + "key=" + url.QueryEscape(s.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch gtfs-rt feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtfs-rt http status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gtfs-rt body: %w", err)
	}
	return decodeVehiclePositions(body)
}

// decodeVehiclePositions turns a raw GTFS-RT buffer into the normalized
// vehicle list. It is pure: same buffer, same output. Entities without a
// position are dropped; a missing vehicle id or route id becomes the
// "Unknown" sentinel rather than a decode failure. Coordinates pass through
// unvalidated, matching the trust placed in the upstream feed.
func decodeVehiclePositions(buf []byte) ([]Vehicle, error) {
	var feed gtfs.FeedMessage
	if err := proto.Unmarshal(buf, &feed); err != nil {
		return nil, fmt.Errorf("decode gtfs-rt feed: %w", err)
	}
	vehicles := make([]Vehicle, 0, len(feed.Entity))
	for _, ent := range feed.Entity {
		if ent == nil || ent.Vehicle == nil {
			continue
		}
		vp := ent.Vehicle
		if vp.Position == nil || vp.Position.Latitude == nil || vp.Position.Longitude == nil {
			continue
		}
		busNo := UnknownField
		if vp.Vehicle != nil && vp.Vehicle.Id != nil && *vp.Vehicle.Id != "" {
			busNo = *vp.Vehicle.Id
		}
		routeNo := UnknownField
		if vp.Trip != nil && vp.Trip.RouteId != nil && *vp.Trip.RouteId != "" {
			routeNo = *vp.Trip.RouteId
		}
		vehicles = append(vehicles, Vehicle{
			BusNo:     busNo,
			RouteNo:   routeNo,
			Latitude:  float64(*vp.Position.Latitude),
			Longitude: float64(*vp.Position.Longitude),
		})
	}
	return vehicles, nil
}

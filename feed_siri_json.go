package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// SiriJsonVehicleFeedSource reads a SIRI VehicleMonitoring JSON endpoint and
// normalizes it to the same model as the GTFS-RT source.
type SiriJsonVehicleFeedSource struct {
	url        string
	httpClient *http.Client
}

func NewSiriJsonVehicleFeedSource(url string, timeout time.Duration) *SiriJsonVehicleFeedSource {
	return &SiriJsonVehicleFeedSource{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *SiriJsonVehicleFeedSource) Fetch(ctx context.Context) ([]Vehicle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch siri json feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("siri json http status: %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read siri json body: %w", err)
	}
	return decodeSiriJSON(b)
}

// decodeSiriJSON walks Siri?.ServiceDelivery.VehicleMonitoringDelivery[].VehicleActivity[]
// without a full schema. Activities without a location are dropped; a missing
// VehicleRef or LineRef becomes the "Unknown" sentinel.
func decodeSiriJSON(b []byte) ([]Vehicle, error) {
	var root map[string]any
	if err := json.Unmarshal(b, &root); err != nil {
		return nil, fmt.Errorf("decode siri json feed: %w", err)
	}
	// Handle optional top-level "Siri" wrapper
	if siri, ok := root["Siri"].(map[string]any); ok && siri != nil {
		root = siri
	}
	sd, _ := root["ServiceDelivery"].(map[string]any)
	vmdArr, _ := sd["VehicleMonitoringDelivery"].([]any)
	vehicles := make([]Vehicle, 0, 256)
	for _, vmdAny := range vmdArr {
		vmd, _ := vmdAny.(map[string]any)
		vaArr, _ := vmd["VehicleActivity"].([]any)
		for _, vaAny := range vaArr {
			va, _ := vaAny.(map[string]any)
			mvj, _ := va["MonitoredVehicleJourney"].(map[string]any)
			if mvj == nil {
				continue
			}
			lat, latOK := floatFromNested(mvj, "VehicleLocation", "Latitude")
			lon, lonOK := floatFromNested(mvj, "VehicleLocation", "Longitude")
			if !latOK || !lonOK {
				continue
			}
			busNo := stringFrom(mvj["VehicleRef"])
			if busNo == "" {
				busNo = stringFromNested(mvj, "FramedVehicleJourneyRef", "DatedVehicleJourneyRef")
			}
			if busNo == "" {
				busNo = UnknownField
			}
			routeNo := stringFrom(mvj["LineRef"])
			if routeNo == "" {
				routeNo = stringFrom(mvj["PublishedLineName"])
			}
			if routeNo == "" {
				routeNo = UnknownField
			}
			vehicles = append(vehicles, Vehicle{BusNo: busNo, RouteNo: routeNo, Latitude: lat, Longitude: lon})
		}
	}
	return vehicles, nil
}

func stringFrom(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func stringFromNested(m map[string]any, k1, k2 string) string {
	m1, _ := m[k1].(map[string]any)
	return stringFrom(m1[k2])
}

func floatFromNested(m map[string]any, k1, k2 string) (float64, bool) {
	m1, _ := m[k1].(map[string]any)
	switch v := m1[k2].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// SiriXmlVehicleFeedSource reads a SIRI VehicleMonitoring XML endpoint and
// normalizes it to the same model as the GTFS-RT source.
type SiriXmlVehicleFeedSource struct {
	url        string
	httpClient *http.Client
}

func NewSiriXmlVehicleFeedSource(url string, timeout time.Duration) *SiriXmlVehicleFeedSource {
	return &SiriXmlVehicleFeedSource{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *SiriXmlVehicleFeedSource) Fetch(ctx context.Context) ([]Vehicle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch siri xml feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("siri xml http status: %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read siri xml body: %w", err)
	}
	return decodeSiriXML(b)
}

// decodeSiriXML streams through SIRI VM XML, namespace tolerant via
// Name.Local. Activities without a parseable location are dropped; missing
// VehicleRef or LineRef becomes the "Unknown" sentinel.
func decodeSiriXML(b []byte) ([]Vehicle, error) {
	dec := xml.NewDecoder(bytes.NewReader(b))

	var (
		inSiri, inSD, inVMD, inVA, inMVJ, inVL bool
		curID, curRoute                        string
		curLat, curLon                         string
		vehicles                               []Vehicle
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode siri xml feed: %w", err)
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "Siri":
				inSiri = true
			case "ServiceDelivery":
				if inSiri {
					inSD = true
				}
			case "VehicleMonitoringDelivery":
				if inSD {
					inVMD = true
				}
			case "VehicleActivity":
				if inVMD {
					inVA = true
					curID, curRoute, curLat, curLon = "", "", "", ""
				}
			case "MonitoredVehicleJourney":
				if inVA {
					inMVJ = true
				}
			case "VehicleLocation":
				if inMVJ || inVA {
					inVL = true
				}
			case "VehicleRef":
				if inMVJ || inVA {
					var v string
					if err := dec.DecodeElement(&v, &se); err == nil {
						curID = v
					}
				}
			case "LineRef":
				if inMVJ || inVA {
					var v string
					if err := dec.DecodeElement(&v, &se); err == nil {
						curRoute = v
					}
				}
			case "Latitude":
				if inVL {
					var v string
					if err := dec.DecodeElement(&v, &se); err == nil {
						curLat = v
					}
				}
			case "Longitude":
				if inVL {
					var v string
					if err := dec.DecodeElement(&v, &se); err == nil {
						curLon = v
					}
				}
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "VehicleLocation":
				inVL = false
			case "MonitoredVehicleJourney":
				inMVJ = false
			case "VehicleActivity":
				if inVA {
					inVA = false
					latf, lonf, ok := parseLatLon(curLat, curLon)
					if !ok {
						continue
					}
					busNo := curID
					if busNo == "" {
						busNo = UnknownField
					}
					routeNo := curRoute
					if routeNo == "" {
						routeNo = UnknownField
					}
					vehicles = append(vehicles, Vehicle{BusNo: busNo, RouteNo: routeNo, Latitude: latf, Longitude: lonf})
				}
			case "VehicleMonitoringDelivery":
				inVMD = false
			case "ServiceDelivery":
				inSD = false
			case "Siri":
				inSiri = false
			}
		}
	}
	return vehicles, nil
}

func parseLatLon(lat, lon string) (float64, float64, bool) {
	lf, err1 := strconv.ParseFloat(lat, 64)
	if err1 != nil {
		return 0, 0, false
	}
	lo, err2 := strconv.ParseFloat(lon, 64)
	if err2 != nil {
		return 0, 0, false
	}
	return lf, lo, true
}

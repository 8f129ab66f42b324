package main

// UnknownField is the sentinel used when the feed omits an identifier.
// Consumers expect a string here, never null.
const UnknownField = "Unknown"

// Vehicle is the normalized observation expected by the frontend.
type Vehicle struct {
	BusNo     string  `json:"busNo"`
	RouteNo   string  `json:"routeNo"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Stop is one entry of the static stop catalog.
type Stop struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// busUpdate is the per-viewer push payload. Stops is a pointer so that
// "omitted" and "present but empty" stay distinguishable on the wire;
// clients use the field's absence to clear their stop layer.
type busUpdate struct {
	Buses []Vehicle `json:"buses"`
	Stops *[]Stop   `json:"stops,omitempty"`
}

// serverEvent is the envelope for server-to-client websocket messages.
type serverEvent struct {
	Event string    `json:"event"`
	Data  busUpdate `json:"data"`
}

// clientEvent is the envelope for client-to-server websocket messages.
type clientEvent struct {
	Event string `json:"event"`
	Data  int    `json:"data"`
}

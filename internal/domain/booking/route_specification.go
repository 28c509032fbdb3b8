package booking

// Location is an address with its coordinates.
type Location struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// RouteSpecification is the route quoted to the customer. It is frozen at
// booking time and never recomputed.
type RouteSpecification struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
	Source      string  `json:"source"`
}

// Contact is who the driver calls and the notification recipient.
type Contact struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
}

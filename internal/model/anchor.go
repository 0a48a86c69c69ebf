package model

// AnchorCategory is one of the four POI categories relevant to footfall.
type AnchorCategory string

const (
	AnchorTransport AnchorCategory = "transport"
	AnchorEducation AnchorCategory = "education"
	AnchorRetail    AnchorCategory = "retail"
	AnchorService   AnchorCategory = "service_station"
)

// AnchorCategories lists all queried categories in a stable order.
var AnchorCategories = []AnchorCategory{
	AnchorTransport,
	AnchorEducation,
	AnchorRetail,
	AnchorService,
}

// AnchorSize is the estimated size class of an anchor.
type AnchorSize string

const (
	AnchorMajor  AnchorSize = "major"
	AnchorMedium AnchorSize = "medium"
	AnchorMinor  AnchorSize = "minor"
)

// AnchorLocation is a single point of interest near a candidate.
// Ephemeral; recomputed per candidate per query, subject to the POI cache.
type AnchorLocation struct {
	Category          AnchorCategory `json:"category"`
	Subtype           string         `json:"subtype"`
	Name              string         `json:"name"`
	Lat               float64        `json:"lat"`
	Lng               float64        `json:"lng"`
	DistanceM         float64        `json:"distance_m"`
	Size              AnchorSize     `json:"size"`
	EstimatedFootfall int            `json:"estimated_footfall"`
	Boost             float64        `json:"boost"`
}

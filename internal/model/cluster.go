package model

// PerformanceCluster is a geographically co-located group of high-turnover
// stores used as a template for replicate-success scoring. Computed on
// demand, cached per region with a multi-day TTL, and always replaced
// wholesale, never partially updated.
type PerformanceCluster struct {
	ID            string   `json:"id"`
	CentroidLat   float64  `json:"centroid_lat"`
	CentroidLng   float64  `json:"centroid_lng"`
	RadiusKM      float64  `json:"radius_km"`
	StoreIDs      []string `json:"store_ids"`
	AvgTurnover   float64  `json:"avg_turnover"`
	StoreCount    int      `json:"store_count"`
	Strength      float64  `json:"strength"`
	Country       string   `json:"country"`
	Region        string   `json:"region"`
	CommonAnchors []string `json:"common_anchors,omitempty"`
}

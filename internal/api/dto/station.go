package dto

type StationResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Connectors  []string `json:"connectors"`
	MaxKw       float64  `json:"maxKw"`
	Operational bool     `json:"operational"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

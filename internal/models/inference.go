package models

// Detection is the body of POST /detection/detect/.
type Detection struct {
	DiseaseDetected bool    `json:"disease_detected"`
	DiseaseName     string  `json:"disease_name"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// DiseaseReport is a detection enriched with local guidance.
type DiseaseReport struct {
	Detection
	Cause string `json:"cause,omitempty"`
	Cure  string `json:"cure,omitempty"`
}

// Recommendation is one recommended plant.
type Recommendation struct {
	Name            string  `json:"name"`
	ScientificName  string  `json:"scientific_name,omitempty"`
	Description     string  `json:"description,omitempty"`
	ImageURL        string  `json:"image_url,omitempty"`
	MatchPercentage float64 `json:"match_percentage"`
}

// RecommendationSet is the body of POST /recommendation/recommend-plants/.
type RecommendationSet struct {
	Location        string           `json:"location"`
	Recommendations []Recommendation `json:"recommendations"`
}

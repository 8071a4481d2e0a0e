package model

import "time"

// Symptom is one recorded symptom entry. Intensity ranges 1..10 and
// DurationMinutes, when set, is non-negative.
type Symptom struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	Intensity       int       `json:"intensity"`
	Notes           string    `json:"notes,omitempty"`
	Location        string    `json:"location,omitempty"`
	Triggers        []string  `json:"triggers,omitempty"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	RecordedAt      time.Time `json:"recorded_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// SymptomStat is an aggregate over one symptom name within a window.
type SymptomStat struct {
	Name             string  `json:"name"`
	AverageIntensity float64 `json:"average_intensity"`
	MaxIntensity     int     `json:"max_intensity"`
	MinIntensity     int     `json:"min_intensity"`
	Count            int     `json:"count"`
}

package services

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexBool is a bool that unmarshals from JSON booleans and 0/1 numerics.
// The backend's is_finished field arrives in both shapes depending on the
// storage layer; normalizing here keeps every use site a plain bool check.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		*b = FlexBool(asBool)
		return nil
	}

	var asNum float64
	if err := json.Unmarshal(data, &asNum); err == nil {
		*b = asNum != 0
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexBool", string(data))
}

func (b FlexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

// ProgressRecord is the saved playback state for one resource, as returned by
// the progress endpoints. Fetched once per playback session; only the client's
// own pushes mutate it afterwards.
type ProgressRecord struct {
	Position             int      `json:"position"` // Whole seconds
	CompletionPercentage float64  `json:"completion_percentage"`
	IsFinished           FlexBool `json:"is_finished"`
	PlaybackSpeed        float64  `json:"playback_speed"`
}

// Finished reports whether the resource has been completed, regardless of the
// wire representation the backend chose.
func (r *ProgressRecord) Finished() bool {
	return bool(r.IsFinished)
}

// ProgressUpdate is the body of a progress push.
type ProgressUpdate struct {
	Position      int     `json:"position"`
	Status        string  `json:"status"` // playing, paused, completed, bookmark
	PlaybackSpeed float64 `json:"playback_speed"`
}

// progressEnvelope wraps the GET response.
type progressEnvelope struct {
	Progress *ProgressRecord `json:"progress"`
}

// pushResponse wraps the POST response.
type pushResponse struct {
	Success  FlexBool        `json:"success"`
	Progress *ProgressRecord `json:"progress"`
}

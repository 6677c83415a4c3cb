package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DisplayTimeLayout is how record timestamps are shown on the dashboard.
const DisplayTimeLayout = "2006-01-02 15:04"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

// Timestamp accepts the datetime shapes emitted by the records service,
// with or without a zone offset and fractional seconds.
type Timestamp struct {
	time.Time
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		ts.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			ts.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", raw)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339))
}

// Display formats the timestamp for the dashboard; zero values render empty.
func (ts Timestamp) Display() string {
	if ts.IsZero() {
		return ""
	}
	return ts.Time.Format(DisplayTimeLayout)
}

// MedicalRecord as returned by the records service.
type MedicalRecord struct {
	RecordID  int       `json:"record_id"`
	PatientID int       `json:"patient_id"`
	DoctorID  int       `json:"doctor_id"`
	Diagnosis string    `json:"diagnosis"`
	CreatedAt Timestamp `json:"created_at"`
}

type MedicalRecordCreate struct {
	PatientID int    `json:"patient_id" form:"patient_id" binding:"required"`
	DoctorID  int    `json:"doctor_id" form:"doctor_id" binding:"required"`
	Diagnosis string `json:"diagnosis" form:"diagnosis" binding:"required"`
}

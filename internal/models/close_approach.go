package models

import (
	"fmt"
	"time"

	"neowatch/internal/helpers"
)

// CloseApproach is one close pass of an NEO by Earth. Designation is
// the transient linking key from the source row; NEO stays nil until
// the database resolves it, and stays nil forever when the dataset has
// no matching object.
type CloseApproach struct {
	Designation string
	Time        *time.Time // naive UTC; nil when the source field is empty
	Distance    float64    // astronomical units
	Velocity    float64    // km/s
	NEO         *NearEarthObject
}

// NewCloseApproach builds a close approach from a raw field record as
// produced by the loader. A malformed calendar timestamp is an error;
// missing distance and velocity default to zero.
func NewCloseApproach(record map[string]string) (*CloseApproach, error) {
	approach := &CloseApproach{Designation: record["des"]}

	if cd := record["cd"]; cd != "" {
		t, err := helpers.ParseApproachTime(cd)
		if err != nil {
			return nil, fmt.Errorf("approach %s: %w", approach.Designation, err)
		}
		approach.Time = &t
	}

	var err error
	if approach.Distance, err = helpers.Coerce(record["dist"], 0.0, helpers.ParseFloat); err != nil {
		return nil, fmt.Errorf("approach %s: invalid distance %q: %w", approach.Designation, record["dist"], err)
	}
	if approach.Velocity, err = helpers.Coerce(record["v_rel"], 0.0, helpers.ParseFloat); err != nil {
		return nil, fmt.Errorf("approach %s: invalid velocity %q: %w", approach.Designation, record["v_rel"], err)
	}

	return approach, nil
}

// TimeStr renders the approach time without seconds, or "unknown date"
// when the source row had none.
func (a *CloseApproach) TimeStr() string {
	if a.Time == nil {
		return "unknown date"
	}
	return helpers.FormatApproachTime(*a.Time)
}

// Fullname names the approaching object, preferring the linked NEO.
func (a *CloseApproach) Fullname() string {
	if a.NEO != nil {
		return a.NEO.Fullname()
	}
	return a.Designation
}

func (a *CloseApproach) String() string {
	return fmt.Sprintf("at %s, %s approaches Earth at a distance of %.2f au and a velocity of %.2f km/s",
		a.TimeStr(), a.Fullname(), a.Distance, a.Velocity)
}

// Serialize produces the map handed to downstream CSV/JSON writers,
// with the linked NEO nested under "neo". Callers must expect a nil
// "neo" entry for approaches the dataset could not link.
func (a *CloseApproach) Serialize() map[string]any {
	var neo any
	if a.NEO != nil {
		neo = a.NEO.Serialize()
	}

	return map[string]any{
		"datetime_utc":  a.TimeStr(),
		"distance_au":   a.Distance,
		"velocity_km_s": a.Velocity,
		"neo":           neo,
	}
}

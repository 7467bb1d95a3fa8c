package models

import (
	"fmt"
	"math"

	"neowatch/internal/helpers"
)

// NearEarthObject is a single object from the SBDB small-body dataset.
// Designation is the unique primary key and never changes once set.
// An unknown diameter is represented as NaN, which no comparison ever
// satisfies.
type NearEarthObject struct {
	Designation string
	Name        string  // "" when the object has no IAU name
	Diameter    float64 // kilometers; NaN when unknown
	Hazardous   bool

	// Approaches is populated by the database while linking and is
	// read-only afterward.
	Approaches []*CloseApproach
}

// NewNearEarthObject builds an NEO from a raw field record as produced
// by the loader. Optional fields default: missing name stays empty,
// missing diameter becomes NaN, missing hazard flag becomes false.
func NewNearEarthObject(record map[string]string) (*NearEarthObject, error) {
	designation := record["pdes"]
	if designation == "" {
		return nil, fmt.Errorf("neo record has no designation: %v", record)
	}

	diameter, err := helpers.Coerce(record["diameter"], math.NaN(), helpers.ParseFloat)
	if err != nil {
		return nil, fmt.Errorf("neo %s: invalid diameter %q: %w", designation, record["diameter"], err)
	}

	return &NearEarthObject{
		Designation: designation,
		Name:        record["name"],
		Diameter:    diameter,
		Hazardous:   helpers.YesFlag(record["pha"]),
	}, nil
}

// DiameterKnown reports whether the dataset provided a diameter.
func (n *NearEarthObject) DiameterKnown() bool {
	return !math.IsNaN(n.Diameter)
}

// Fullname combines the designation with the IAU name when one exists.
func (n *NearEarthObject) Fullname() string {
	if n.Name != "" {
		return fmt.Sprintf("%s (%s)", n.Designation, n.Name)
	}
	return n.Designation
}

func (n *NearEarthObject) String() string {
	diameter := "an unknown diameter"
	if n.DiameterKnown() {
		diameter = fmt.Sprintf("a diameter of %.3f km", n.Diameter)
	}
	hazardous := "is not"
	if n.Hazardous {
		hazardous = "is potentially"
	}
	return fmt.Sprintf("NEO %s has %s and %s hazardous", n.Fullname(), diameter, hazardous)
}

// Serialize produces the map handed to downstream CSV/JSON writers.
// Name is nil when absent and an unknown diameter serializes as the
// string "unknown".
func (n *NearEarthObject) Serialize() map[string]any {
	var name any
	if n.Name != "" {
		name = n.Name
	}

	diameter := any("unknown")
	if n.DiameterKnown() {
		diameter = n.Diameter
	}

	return map[string]any{
		"designation":           n.Designation,
		"name":                  name,
		"diameter_km":           diameter,
		"potentially_hazardous": n.Hazardous,
	}
}

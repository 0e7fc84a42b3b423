package entities

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// KST is the timezone the upstream reports in and labels are rendered in.
var KST = time.FixedZone("KST", 9*60*60)

// SimulatedIDPrefix namespaces synthetic facility identifiers. Real upstream
// identifiers are alphanumeric codes and never contain an underscore.
const SimulatedIDPrefix = "SIM_"

// Coordinate is a WGS84 point
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// HospitalRecord is one emergency facility's current state
type HospitalRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`

	GeneralBedsAvailable   int  `json:"general_beds_available"`
	GeneralBedsTotal       *int `json:"general_beds_total,omitempty"`
	PediatricBedsAvailable int  `json:"pediatric_beds_available"`
	PediatricBedsTotal     *int `json:"pediatric_beds_total,omitempty"`
	DeliveryRoomsAvailable int  `json:"delivery_rooms_available"`
	DeliveryRoomsTotal     *int `json:"delivery_rooms_total,omitempty"`

	IsolationBedsNegativePressure int `json:"isolation_beds_negative_pressure"`
	IsolationBedsGeneral          int `json:"isolation_beds_general"`

	HasCT         bool `json:"has_ct"`
	HasMRI        bool `json:"has_mri"`
	HasAngio      bool `json:"has_angio"`
	HasVentilator bool `json:"has_ventilator"`

	ParentFacilityID string      `json:"parent_facility_id,omitempty"`
	LastUpdatedLabel string      `json:"last_updated_label"`
	Coordinate       *Coordinate `json:"coordinate,omitempty"`

	// DistanceKm is derived per request and never persisted.
	DistanceKm *float64 `json:"-"`
}

// Clone returns a deep copy so callers can mutate derived fields without
// touching cached or favorited snapshots.
func (h HospitalRecord) Clone() HospitalRecord {
	out := h
	out.GeneralBedsTotal = clonePtr(h.GeneralBedsTotal)
	out.PediatricBedsTotal = clonePtr(h.PediatricBedsTotal)
	out.DeliveryRoomsTotal = clonePtr(h.DeliveryRoomsTotal)
	out.Coordinate = clonePtr(h.Coordinate)
	out.DistanceKm = clonePtr(h.DistanceKm)
	return out
}

// Snapshot is the persistable form of the record: a deep copy without derived fields.
func (h HospitalRecord) Snapshot() HospitalRecord {
	out := h.Clone()
	out.DistanceKm = nil
	return out
}

// IsSimulated reports whether the record came from the simulation generator.
func (h HospitalRecord) IsSimulated() bool {
	return IsSimulatedID(h.ID)
}

// DirectionsURL returns a map deep link for navigation, or "" without a coordinate.
func (h HospitalRecord) DirectionsURL() string {
	if h.Coordinate == nil {
		return ""
	}
	return fmt.Sprintf("https://map.kakao.com/link/to/%s,%g,%g",
		url.PathEscape(h.Name), h.Coordinate.Latitude, h.Coordinate.Longitude)
}

// IsSimulatedID reports whether id belongs to the synthetic namespace.
func IsSimulatedID(id string) bool {
	return strings.HasPrefix(id, SimulatedIDPrefix)
}

// CloneHospitals deep-copies a slice of records. A nil input yields nil.
func CloneHospitals(in []HospitalRecord) []HospitalRecord {
	if in == nil {
		return nil
	}
	out := make([]HospitalRecord, len(in))
	for i, h := range in {
		out[i] = h.Clone()
	}
	return out
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

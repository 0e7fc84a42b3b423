package entities

// HospitalListItem is a ranked hospital as returned to clients
type HospitalListItem struct {
	HospitalRecord
	DistanceKm    *float64        `json:"distance_km,omitempty"`
	IsFavorite    bool            `json:"is_favorite"`
	Simulated     bool            `json:"simulated"`
	GeneralBeds   BedAvailability `json:"general_beds"`
	PediatricBeds BedAvailability `json:"pediatric_beds"`
	DeliveryRooms BedAvailability `json:"delivery_rooms"`
	DirectionsURL string          `json:"directions_url,omitempty"`
}

// NewHospitalListItem decorates a ranked record for presentation.
func NewHospitalListItem(h HospitalRecord, favorite bool) HospitalListItem {
	return HospitalListItem{
		HospitalRecord: h,
		DistanceKm:     h.DistanceKm,
		IsFavorite:     favorite,
		Simulated:      h.IsSimulated(),
		GeneralBeds:    ClassifyBeds(h.GeneralBedsAvailable, h.GeneralBedsTotal, false),
		PediatricBeds:  ClassifyBeds(h.PediatricBedsAvailable, h.PediatricBedsTotal, true),
		DeliveryRooms:  ClassifyBeds(h.DeliveryRoomsAvailable, h.DeliveryRoomsTotal, true),
		DirectionsURL:  h.DirectionsURL(),
	}
}

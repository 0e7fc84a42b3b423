package entities

// BedStatus is the congestion level shown next to a bed count
type BedStatus string

const (
	BedStatusAmple    BedStatus = "AMPLE"
	BedStatusModerate BedStatus = "MODERATE"
	BedStatusCrowded  BedStatus = "CROWDED"
	BedStatusFull     BedStatus = "FULL"
)

// BedAvailability is an (available, total) pair with its derived status
type BedAvailability struct {
	Available int       `json:"available"`
	Total     *int      `json:"total,omitempty"`
	Status    BedStatus `json:"status"`
	Inactive  bool      `json:"inactive"`
}

// ClassifyBeds derives the status of a bed category. Ratios are used when a
// positive total is known; otherwise absolute thresholds apply. special marks
// categories (pediatric, delivery) that many facilities do not offer at all.
func ClassifyBeds(available int, total *int, special bool) BedAvailability {
	out := BedAvailability{Available: available, Total: total}

	if total != nil && *total > 0 {
		ratio := float64(available) / float64(*total)
		switch {
		case ratio > 0.66:
			out.Status = BedStatusAmple
		case ratio >= 0.33:
			out.Status = BedStatusModerate
		default:
			out.Status = BedStatusCrowded
		}
	} else {
		switch {
		case available >= 5:
			out.Status = BedStatusAmple
		case available >= 1:
			out.Status = BedStatusModerate
		default:
			out.Status = BedStatusFull
		}
	}

	// total == 0 means the capability is not offered; absent total means unknown.
	out.Inactive = (total != nil && *total == 0) || (total == nil && available == 0 && special)
	return out
}

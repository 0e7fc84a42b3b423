package entities

// DataSource tags where a hospital list came from
type DataSource string

const (
	// SourceLive means the list reflects the upstream service (possibly via cache)
	SourceLive DataSource = "LIVE"
	// SourceSimulation means the upstream was unusable and the list is synthetic
	SourceSimulation DataSource = "SIMULATION"
)

// ResultState is the terminal state of one pipeline run
type ResultState string

const (
	StateLiveWithData ResultState = "LIVE"
	StateLiveEmpty    ResultState = "LIVE_EMPTY"
	StateSimulation   ResultState = "SIMULATION"
)

// FetchResult is what the acquisition pipeline hands to ranking and presentation
type FetchResult struct {
	Region    RegionQuery      `json:"region"`
	Hospitals []HospitalRecord `json:"hospitals"`
	Source    DataSource       `json:"source"`
	FromCache bool             `json:"from_cache"`
	RunID     string           `json:"run_id,omitempty"`
}

// State collapses the result onto {LIVE-with-data, LIVE-empty, SIMULATION}.
func (r FetchResult) State() ResultState {
	switch {
	case r.Source == SourceSimulation:
		return StateSimulation
	case len(r.Hospitals) == 0:
		return StateLiveEmpty
	default:
		return StateLiveWithData
	}
}

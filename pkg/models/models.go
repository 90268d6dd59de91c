package models

// FilterMode selects the layout strategy.
type FilterMode string

const (
	// FilterFavorites pools the selected events of a day across all stages.
	FilterFavorites FilterMode = "favorites"
	// FilterAll lays out every visible event inside its stage-group column.
	FilterAll FilterMode = "all"
)

// Event represents a single act's time slot on a given day and stage
type Event struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Day   string `json:"day"`
	Stage string `json:"stage"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Selection marks an event the user is interested in
type Selection struct {
	EventID  string `json:"event_id"`
	Interest int    `json:"interest,omitempty"`
}

// Weight returns the interest weight, treating unset as 1.
func (s Selection) Weight() int {
	if s.Interest < 1 {
		return 1
	}
	return s.Interest
}

// PositionedEvent is an Event plus its render geometry. Horizontal values are
// percentages of the day's width.
type PositionedEvent struct {
	Event
	StartMin int      `json:"start_min"`
	EndMin   int      `json:"end_min"`
	Group    string   `json:"group"`
	Lane     int      `json:"lane"`
	Columns  int      `json:"columns"`
	Context  []string `json:"context,omitempty"`
	Top      float64  `json:"top"`
	Height   float64  `json:"height"`
	LeftPct  float64  `json:"left_pct"`
	WidthPct float64  `json:"width_pct"`
}

// DayLayout holds the positioned events of one festival day
type DayLayout struct {
	Day    string            `json:"day"`
	Events []PositionedEvent `json:"events"`
	// Converged is false when context propagation hit its round cap.
	Converged bool `json:"converged"`
}

// ClashEvent identifies an event taking part in a clash
type ClashEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClashSegment is a maximal span where the same two or more selected events
// are active.
type ClashSegment struct {
	Day        string       `json:"day"`
	Start      int          `json:"start"`
	End        int          `json:"end"`
	StartLabel string       `json:"start_label"`
	EndLabel   string       `json:"end_label"`
	Level      int          `json:"level"`
	Events     []ClashEvent `json:"events"`
}

// DayStats summarises a day's selected events
type DayStats struct {
	Day               string `json:"day"`
	EventCount        int    `json:"event_count"`
	ClashCount        int    `json:"clash_count"`
	BusyMinutes       int    `json:"busy_minutes"`
	TransitionMinutes int    `json:"transition_minutes"`
	FreeMinutes       int    `json:"free_minutes"`
	WindowMinutes     int    `json:"window_minutes"`
	CompletionRate    int    `json:"completion_rate"`
	Persona           string `json:"persona"`
}

// Summary is the result of the statistics endpoint
type Summary struct {
	Days              []DayStats     `json:"days"`
	Clashes           []ClashSegment `json:"clashes"`
	TotalEvents       int            `json:"total_events"`
	TotalBusyMinutes  int            `json:"total_busy_minutes"`
	AverageCompletion float64        `json:"average_completion"`
	Rank              string         `json:"rank"`
}

// LayoutRequest is the data structure for the layout endpoint
type LayoutRequest struct {
	Events        []Event     `json:"events"`
	VisibleStages []string    `json:"visible_stages,omitempty"`
	Selected      []Selection `json:"selected,omitempty"`
	Reverse       bool        `json:"reverse"`
	FilterMode    FilterMode  `json:"filter_mode"`
	Scale         float64     `json:"scale,omitempty"`
	MaxHeight     float64     `json:"max_height,omitempty"`
}

// LayoutResponse is the data structure for the layout result
type LayoutResponse struct {
	Days     []DayLayout `json:"days"`
	Warnings []string    `json:"warnings,omitempty"`
}

// StatsRequest is the data structure for the statistics endpoint
type StatsRequest struct {
	Events      []Event     `json:"events"`
	Selected    []Selection `json:"selected"`
	MinInterest int         `json:"min_interest,omitempty"`
}

// ExportRequest is the data structure for the calendar export endpoint
type ExportRequest struct {
	Events   []Event     `json:"events"`
	Selected []Selection `json:"selected"`
}

// ValidateRequest is the data structure for the validation endpoint
type ValidateRequest struct {
	Events []Event `json:"events"`
}

// ValidationIssue represents why an event was rejected
type ValidationIssue struct {
	EventID string   `json:"event_id"`
	Reasons []string `json:"reasons"`
}

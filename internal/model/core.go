package model

// Granularity is the time bucket size of an aggregation.
type Granularity string

const (
	Monthly Granularity = "month"
	Weekly  Granularity = "week"
	Daily   Granularity = "day"
	Hourly  Granularity = "hour"
)

// Valid reports whether g is one of the four supported granularities.
func (g Granularity) Valid() bool {
	switch g {
	case Monthly, Weekly, Daily, Hourly:
		return true
	}
	return false
}

// Source types
const (
	SourceCSV = "csv" // local path or http(s) URL serving CSV text
	SourceAPI = "api" // remote aggregation API returning a JSON array
)

// Source represents a raw data source for the pipeline
type Source struct {
	Type   string            `json:"type" validate:"required,oneof=csv api"`
	URL    string            `json:"url" validate:"required"`
	Params map[string]string `json:"params,omitempty"` // extra query params for api sources
}

// PeriodSpec is an inclusive date span, both ends formatted as YYYY-MM-DD
type PeriodSpec struct {
	Start string `json:"start" validate:"required,ymd"`
	End   string `json:"end" validate:"required,ymd"`
}

// Breakdown levels for license-plate columns
const (
	BreakdownPrefecture = "prefecture"
	BreakdownRegion     = "region"
)

// Export defines export targets
type Export struct {
	Format string `json:"format" validate:"omitempty,oneof=csv json"` // csv (default) or json
	File   string `json:"file,omitempty"`                             // file name inside the run output dir
}

// AggregationRequest is the body of POST /api/v1/aggregations.
// Start/End (YYYY-MM-DD) are required for every granularity except hour,
// where the range is already applied by the source.
type AggregationRequest struct {
	Source      Source      `json:"source" validate:"required"`
	Granularity Granularity `json:"granularity" validate:"required,oneof=month week day hour"`
	Start       string      `json:"start,omitempty" validate:"required_unless=Granularity hour,ymd"`
	End         string      `json:"end,omitempty" validate:"required_unless=Granularity hour,ymd"`
	Group       string      `json:"group,omitempty"`
	Compare     *PeriodSpec `json:"compare,omitempty" validate:"omitempty"`
	Breakdown   string      `json:"breakdown,omitempty" validate:"omitempty,oneof=prefecture region"`
	Export      *Export     `json:"export,omitempty" validate:"omitempty"`
}

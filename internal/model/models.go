package model

import "time"

// Favorite is a saved dashboard view preset.
type Favorite struct {
	ID           string      `json:"id"`
	Name         string      `json:"name" validate:"required,max=100"`
	Page         string      `json:"page" validate:"required,max=100"` // dashboard page the preset belongs to
	Granularity  Granularity `json:"granularity" validate:"required,oneof=month week day hour"`
	Start        string      `json:"start,omitempty" validate:"ymd"`
	End          string      `json:"end,omitempty" validate:"ymd"`
	CompareStart string      `json:"compareStart,omitempty" validate:"ymd"`
	CompareEnd   string      `json:"compareEnd,omitempty" validate:"ymd"`
	Group        string      `json:"group,omitempty"`
	Breakdown    string      `json:"breakdown,omitempty" validate:"omitempty,oneof=prefecture region"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

package models

// CriterionDef defines one fixed row of the criteria panel.
type CriterionDef struct {
	Label string `json:"label" yaml:"label" mapstructure:"label"`
}

// CriterionEntry is a criterion row as filled in by the reviewer.
// An empty Rating means the reviewer did not choose one.
type CriterionEntry struct {
	Label  string `json:"label"`
	Rating string `json:"rating"`
	Note   string `json:"note"`
}

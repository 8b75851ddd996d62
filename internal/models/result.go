package models

import (
	"fmt"
	"time"
)

// Decision is the binary verdict recorded for a reviewed item.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision validates a decision string.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAccept, DecisionReject:
		return Decision(s), nil
	default:
		return "", fmt.Errorf("invalid decision %q (use accept or reject)", s)
	}
}

// ResultRecord is captured exactly once per reviewed item, at decision time.
type ResultRecord struct {
	ID               string           `json:"id"`
	ItemName         string           `json:"item_name"`
	Decision         Decision         `json:"decision"`
	TimeSpentSeconds float64          `json:"time_spent_seconds"`
	Criteria         []CriterionEntry `json:"criteria"`
	DecidedAt        time.Time        `json:"decided_at"`
}

package criteria

import (
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/joescharf/adreview/internal/models"
)

// DefaultLabels are the criterion rows shown when none are configured.
var DefaultLabels = []string{
	"Hook (first 3s)",
	"Brand visibility",
	"Message clarity",
	"Audio quality",
	"Visual quality",
	"Call to action",
}

// DefaultRatings is the rating scale offered for every criterion.
var DefaultRatings = []string{"1", "2", "3", "4", "5"}

// Provider supplies the criterion rows and rating scale. It is consulted each
// time the criteria panel is reset.
type Provider interface {
	Criteria() []models.CriterionDef
	Ratings() []string
}

// Static is a Provider backed by fixed lists.
type Static struct {
	Labels      []string
	RatingScale []string
}

// Default returns the built-in provider.
func Default() Static {
	return Static{Labels: DefaultLabels, RatingScale: DefaultRatings}
}

func (s Static) Criteria() []models.CriterionDef {
	defs := make([]models.CriterionDef, 0, len(s.Labels))
	for _, l := range s.Labels {
		defs = append(defs, models.CriterionDef{Label: l})
	}
	return defs
}

func (s Static) Ratings() []string {
	return slices.Clone(s.RatingScale)
}

// FromConfig reads review.criteria and review.ratings from viper on every
// call, so config changes picked up by viper.WatchConfig (started by serve)
// apply to the next loaded item.
type FromConfig struct{}

func (c FromConfig) Criteria() []models.CriterionDef {
	return Static{Labels: c.Labels()}.Criteria()
}

// Labels returns the configured criterion labels, or DefaultLabels.
func (FromConfig) Labels() []string {
	return slices.Clone(orDefault(viper.GetStringSlice("review.criteria"), DefaultLabels))
}

func (FromConfig) Ratings() []string {
	return slices.Clone(orDefault(viper.GetStringSlice("review.ratings"), DefaultRatings))
}

// ValidRating reports whether rating is empty or part of p's scale.
func ValidRating(p Provider, rating string) bool {
	return rating == "" || slices.Contains(p.Ratings(), rating)
}

func orDefault(values, fallback []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

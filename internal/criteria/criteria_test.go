package criteria

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	p := Default()
	defs := p.Criteria()
	require.Len(t, defs, len(DefaultLabels))
	assert.Equal(t, DefaultLabels[0], defs[0].Label)
	assert.Equal(t, DefaultRatings, p.Ratings())
}

func TestStatic_RatingsReturnsCopy(t *testing.T) {
	p := Static{RatingScale: []string{"good", "bad"}}
	r := p.Ratings()
	r[0] = "changed"
	assert.Equal(t, []string{"good", "bad"}, p.Ratings())
}

func TestFromConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	p := FromConfig{}
	assert.Len(t, p.Criteria(), len(DefaultLabels))
	assert.Equal(t, DefaultRatings, p.Ratings())
}

func TestFromConfig_Configured(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("review.criteria", []string{"Pacing", " ", "Logo"})
	viper.Set("review.ratings", []string{"ok", "not ok"})

	p := FromConfig{}
	defs := p.Criteria()
	require.Len(t, defs, 2)
	assert.Equal(t, "Pacing", defs[0].Label)
	assert.Equal(t, "Logo", defs[1].Label)
	assert.Equal(t, []string{"ok", "not ok"}, p.Ratings())
	assert.Equal(t, []string{"Pacing", "Logo"}, p.Labels())
}

func TestValidRating(t *testing.T) {
	p := Default()
	assert.True(t, ValidRating(p, ""))
	assert.True(t, ValidRating(p, "3"))
	assert.False(t, ValidRating(p, "6"))
}

package services

import (
	"testing"

	"campus-events-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateTeamSize_Fixed(t *testing.T) {
	policy := models.TeamSizePolicy{Type: models.TeamSizeFixed, Value: 4}
	for n := 0; n <= 10; n++ {
		res := EvaluateTeamSize(policy, n)
		assert.Equal(t, n == 4, res.Valid, "n=%d", n)
		if !res.Valid {
			assert.Contains(t, res.Message, "exactement 4")
		}
	}
}

func TestEvaluateTeamSize_Range(t *testing.T) {
	policy := models.TeamSizePolicy{Type: models.TeamSizeRange, Min: 2, Max: 5}
	for n := 0; n <= 8; n++ {
		assert.Equal(t, n >= 2 && n <= 5, EvaluateTeamSize(policy, n).Valid, "n=%d", n)
	}
	assert.False(t, EvaluateTeamSize(policy, 1).Valid)
	assert.False(t, EvaluateTeamSize(policy, 6).Valid)
	assert.Contains(t, EvaluateTeamSize(policy, 6).Message, "entre 2 et 5")
}

func TestEvaluateTeamSize_RangeClamping(t *testing.T) {
	// min ramené à 1, max ramené à min
	policy := models.TeamSizePolicy{Type: models.TeamSizeRange, Min: 0, Max: -3}
	assert.True(t, EvaluateTeamSize(policy, 1).Valid)
	assert.False(t, EvaluateTeamSize(policy, 0).Valid)
	assert.False(t, EvaluateTeamSize(policy, 2).Valid)
}

func TestEvaluateTeamSize_Bounds(t *testing.T) {
	atMost := models.TeamSizePolicy{Type: models.TeamSizeAtMost, Max: 3}
	assert.False(t, EvaluateTeamSize(atMost, 0).Valid)
	assert.True(t, EvaluateTeamSize(atMost, 1).Valid)
	assert.True(t, EvaluateTeamSize(atMost, 3).Valid)
	assert.False(t, EvaluateTeamSize(atMost, 4).Valid)

	atLeast := models.TeamSizePolicy{Type: models.TeamSizeAtLeast, Min: 3}
	assert.False(t, EvaluateTeamSize(atLeast, 2).Valid)
	assert.True(t, EvaluateTeamSize(atLeast, 3).Valid)
	assert.True(t, EvaluateTeamSize(atLeast, 30).Valid)
	assert.Contains(t, EvaluateTeamSize(atLeast, 2).Message, "au moins 3")
}

func TestEvaluateTeamSize_ZeroBoundsAreLiteral(t *testing.T) {
	atMost := models.TeamSizePolicy{Type: models.TeamSizeAtMost, Max: 0}
	for _, n := range []int{0, 1, 2} {
		assert.False(t, EvaluateTeamSize(atMost, n).Valid, "at_most(0) n=%d", n)
	}

	fixed := models.TeamSizePolicy{Type: models.TeamSizeFixed, Value: 0}
	assert.False(t, EvaluateTeamSize(fixed, 1).Valid)
	assert.Contains(t, EvaluateTeamSize(fixed, 1).Message, "exactement 0")
}

func TestEvaluateTeamSize_IndividualAndUnknown(t *testing.T) {
	for _, policy := range []models.TeamSizePolicy{
		{Type: models.TeamSizeIndividual},
		{},
		{Type: "quatuor", Value: 4},
	} {
		for _, n := range []int{0, 1, 7} {
			res := EvaluateTeamSize(policy, n)
			assert.True(t, res.Valid)
			assert.Equal(t, 1, res.EffectiveSize)
		}
		assert.True(t, IsIndividual(policy))
	}
	assert.False(t, IsIndividual(models.TeamSizePolicy{Type: models.TeamSizeFixed, Value: 2}))
}

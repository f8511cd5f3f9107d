package services

import (
	"fmt"

	"campus-events-backend/models"
)

// TeamSizeResult est le verdict de EvaluateTeamSize
type TeamSizeResult struct {
	Valid         bool
	EffectiveSize int
	Message       string
}

// EvaluateTeamSize vérifie un nombre de membres contre la politique de l'événement.
// Une politique inconnue ou vide se comporte comme "individual".
func EvaluateTeamSize(policy models.TeamSizePolicy, count int) TeamSizeResult {
	switch policy.Type {
	case models.TeamSizeFixed:
		if count != policy.Value {
			return invalidSize(count, fmt.Sprintf("Cet événement exige exactement %d membre(s), %d fourni(s)", policy.Value, count))
		}
		return TeamSizeResult{Valid: true, EffectiveSize: count}

	case models.TeamSizeRange:
		lo := max(1, policy.Min)
		hi := max(lo, policy.Max)
		if count < lo || count > hi {
			return invalidSize(count, fmt.Sprintf("L'équipe doit compter entre %d et %d membres, %d fourni(s)", lo, hi, count))
		}
		return TeamSizeResult{Valid: true, EffectiveSize: count}

	case models.TeamSizeAtMost:
		if count < 1 || count > policy.Max {
			return invalidSize(count, fmt.Sprintf("L'équipe doit compter entre 1 et %d membres, %d fourni(s)", policy.Max, count))
		}
		return TeamSizeResult{Valid: true, EffectiveSize: count}

	case models.TeamSizeAtLeast:
		lo := max(1, policy.Min)
		if count < lo {
			return invalidSize(count, fmt.Sprintf("L'équipe doit compter au moins %d membres, %d fourni(s)", lo, count))
		}
		return TeamSizeResult{Valid: true, EffectiveSize: count}
	}

	// individual : les noms en trop sont ignorés
	return TeamSizeResult{Valid: true, EffectiveSize: 1}
}

func invalidSize(count int, message string) TeamSizeResult {
	return TeamSizeResult{Valid: false, EffectiveSize: count, Message: message}
}

// IsIndividual indique si la politique force une inscription à un seul membre
func IsIndividual(policy models.TeamSizePolicy) bool {
	switch policy.Type {
	case models.TeamSizeFixed, models.TeamSizeRange, models.TeamSizeAtMost, models.TeamSizeAtLeast:
		return false
	}
	return true
}

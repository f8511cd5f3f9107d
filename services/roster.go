package services

import (
	"strings"

	"campus-events-backend/models"
)

// NormalizeRoster nettoie les membres soumis : espaces retirés, emails en minuscules,
// membres sans nom écartés. L'ordre est conservé, le premier membre reste le chef d'équipe.
func NormalizeRoster(members []models.TeamMember) models.Roster {
	roster := make(models.Roster, 0, len(members))
	for _, m := range members {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		roster = append(roster, models.TeamMember{
			Name:  name,
			Email: strings.ToLower(strings.TrimSpace(m.Email)),
			Phone: strings.TrimSpace(m.Phone),
		})
	}
	return roster
}

// soloRoster réduit l'inscription au seul utilisateur qui la soumet
func soloRoster(user *models.User, submitted models.Roster) models.Roster {
	leader := models.TeamMember{
		Name:  strings.TrimSpace(user.Name),
		Email: strings.ToLower(user.Email),
		Phone: strings.TrimSpace(user.Phone),
	}
	if first := submitted.Leader(); first != nil {
		if leader.Name == "" {
			leader.Name = first.Name
		}
		if leader.Phone == "" {
			leader.Phone = first.Phone
		}
	}
	if leader.Name == "" {
		leader.Name, _, _ = strings.Cut(leader.Email, "@")
	}
	return models.Roster{leader}
}

// withLeaderEmail complète l'email du chef d'équipe avec celui du compte s'il est absent
func withLeaderEmail(roster models.Roster, user *models.User) models.Roster {
	if len(roster) > 0 && roster[0].Email == "" {
		roster[0].Email = strings.ToLower(user.Email)
	}
	return roster
}

// recipients retourne les emails distincts (insensible à la casse) du propriétaire et des membres
func recipients(ownerEmail string, roster models.Roster) []string {
	seen := make(map[string]bool, len(roster)+1)
	out := make([]string, 0, len(roster)+1)
	for _, email := range append([]string{ownerEmail}, roster.Emails()...) {
		key := strings.ToLower(strings.TrimSpace(email))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

package services

import (
	"testing"

	"campus-events-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoster(t *testing.T) {
	roster := NormalizeRoster([]models.TeamMember{
		{Name: "  Asha ", Email: " ASHA@College.EDU ", Phone: " 9876543210 "},
		{Name: "   ", Email: "ghost@college.edu"},
		{Name: "Ravi"},
	})

	require.Len(t, roster, 2)
	assert.Equal(t, models.TeamMember{Name: "Asha", Email: "asha@college.edu", Phone: "9876543210"}, roster[0])
	assert.Equal(t, "Ravi", roster[1].Name)
	assert.Equal(t, "Asha", roster.Leader().Name)
}

func TestSoloRoster(t *testing.T) {
	submitted := NormalizeRoster([]models.TeamMember{{Name: "Asha K", Phone: "123"}, {Name: "Extra"}})

	t.Run("profil complet", func(t *testing.T) {
		user := &models.User{Name: "Asha Kumar", Email: "Asha@College.edu", Phone: "999"}
		roster := soloRoster(user, submitted)
		require.Len(t, roster, 1)
		assert.Equal(t, models.TeamMember{Name: "Asha Kumar", Email: "asha@college.edu", Phone: "999"}, roster[0])
	})

	t.Run("profil sans nom", func(t *testing.T) {
		roster := soloRoster(&models.User{Email: "asha@college.edu"}, submitted)
		assert.Equal(t, "Asha K", roster[0].Name)
		assert.Equal(t, "123", roster[0].Phone)
	})

	t.Run("rien de soumis", func(t *testing.T) {
		roster := soloRoster(&models.User{Email: "ravi@college.edu"}, nil)
		assert.Equal(t, "ravi", roster[0].Name)
	})
}

func TestRecipients(t *testing.T) {
	roster := models.Roster{
		{Name: "A", Email: "asha@college.edu"},
		{Name: "B", Email: "RAVI@college.edu"},
		{Name: "C"},
		{Name: "D", Email: "ravi@college.edu"},
	}
	assert.Equal(t, []string{"asha@college.edu", "ravi@college.edu"}, recipients("Asha@College.edu", roster))
	assert.Empty(t, recipients("", models.Roster{{Name: "X"}}))
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// CampusTimezone est le fuseau dans lequel les dates saisies par les organisateurs sont interprétées
const CampusTimezone = "Asia/Kolkata"

var flexibleLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
}

// FlexibleTime accepte plusieurs formats de dates dans les requêtes JSON
type FlexibleTime struct {
	time.Time
}

func campusLocation() *time.Location {
	loc, err := time.LoadLocation(CampusTimezone)
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// UnmarshalJSON implémente json.Unmarshaler
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		ft.Time = time.Time{}
		return nil
	}

	loc := campusLocation()
	for _, layout := range flexibleLayouts {
		// Les formats avec fuseau explicite gardent leur fuseau, les autres sont lus en heure du campus
		if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
			ft.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("format de date invalide: %s", s)
}

// MarshalJSON retourne la date en heure du campus, en RFC3339
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	if ft.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte("\"" + ft.Time.In(campusLocation()).Format(time.RFC3339) + "\""), nil
}

// Ptr retourne un *time.Time UTC, nil pour une date vide
func (ft *FlexibleTime) Ptr() *time.Time {
	if ft == nil || ft.Time.IsZero() {
		return nil
	}
	t := ft.Time.UTC()
	return &t
}

package database

import "embed"

// Migrations contient les migrations de données appliquées par "campus-events migrate"
//
//go:embed migrations/*.json
var Migrations embed.FS

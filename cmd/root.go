package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "campus-events",
	Short: "Backend du portail des événements du campus",
	Long: `Backend du portail des événements du campus : inscriptions, paiements et notifications.

	campus-events serve
	campus-events sweep
	campus-events migrate up`,
}

// Execute lance la commande demandée. Sans sous-commande, le serveur démarre.
func Execute() {
	if len(os.Args) == 1 {
		rootCmd.SetArgs([]string{"serve"})
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

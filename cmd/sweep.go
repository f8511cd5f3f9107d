package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Exécute une fois les balayages de maintenance",
	Long: `Supprime les inscriptions en attente expirées puis envoie les reçus manquants.
Le balayage des reçus ne tourne que si AUTO_NOTIFY_ENABLED est actif.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		deleted, receipts := a.housekeeping.RunOnce(ctx)
		log.Info().Int("deleted", deleted).Int("receipts", receipts).Msg("✓ Balayage terminé")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

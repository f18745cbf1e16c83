package commands

import (
	"github.com/spf13/cobra"

	mongostore "github.com/techpress/publishing-api/internal/infrastructure/db/mongo"
)

// indexesCmd creates the MongoDB indexes and exits
var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create MongoDB indexes",
	Long: `Create the MongoDB indexes the API relies on, including the unique indexes
that keep likes and reviews to one per user and article. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(ctx) }()

		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("indexes ensured")
		return nil
	},
}

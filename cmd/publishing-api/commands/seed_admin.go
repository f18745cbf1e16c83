package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/techpress/publishing-api/internal/core/service"
	mongostore "github.com/techpress/publishing-api/internal/infrastructure/db/mongo"
)

// seedAdminCmd creates or repairs the bootstrap admin account
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create or repair the admin account",
	Long: `Create the admin account from ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD.

If a user with ADMIN_EMAIL already exists it is promoted to admin and its
password is reset.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
			return errors.New("seed-admin: ADMIN_EMAIL and ADMIN_PASSWORD are required")
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

		auth := service.NewAuthService(mongostore.NewUserRepository(db), cfg.JWTSecret, cfg.JWTTTL)
		user, created, err := auth.SeedAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return err
		}

		log.Info().
			Str("user_id", user.ID).
			Str("username", user.Username).
			Bool("created", created).
			Msg("admin account ready")
		return nil
	},
}

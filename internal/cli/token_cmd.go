package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-overview-api/internal/middleware"
)

func newTokenCmd(app *App) *cobra.Command {
	var (
		userID uint
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				return errors.New("--user is required")
			}
			if app.Config.JWTSecret == "" {
				return errors.New("jwt secret is not configured")
			}

			token, err := middleware.SignToken(app.Config.JWTSecret, userID, role, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(out(cmd), token)
			return nil
		},
	}

	cmd.Flags().UintVar(&userID, "user", 0, "User id placed in the token subject")
	cmd.Flags().StringVar(&role, "role", middleware.SiteRoleUser, "Site role (user or admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}

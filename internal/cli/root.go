// Package cli implements the overviewctl operator commands.
package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/config"
)

// App holds what the commands need. OpenDB is called lazily so commands that need no database never connect.
type App struct {
	Config config.Config
	Logger zerolog.Logger
	OpenDB func(ctx context.Context) (*gorm.DB, error)
}

// NewRootCmd creates the top-level "overviewctl" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "overviewctl",
		Short:         "Operate the activity overview service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(app),
		newOverviewCmd(app),
		newTokenCmd(app),
	)

	return root
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

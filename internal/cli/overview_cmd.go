package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-overview-api/internal/overview"
	"github.com/noah-isme/gema-overview-api/internal/repository"
	"github.com/noah-isme/gema-overview-api/internal/service"
	"github.com/noah-isme/gema-overview-api/internal/storage"
	"github.com/noah-isme/gema-overview-api/pkg/h5p"
)

func newOverviewCmd(app *App) *cobra.Command {
	var (
		cmID   uint
		userID uint
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Print the overview items of one activity as seen by a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmID == 0 || userID == 0 {
				return errors.New("--cm and --user are required")
			}

			svc, err := buildOverviewService(cmd, app)
			if err != nil {
				return err
			}

			activity, err := svc.ActivityOverview(cmd.Context(), cmID, userID)
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(out(cmd))
				encoder.SetIndent("", "  ")
				return encoder.Encode(activity)
			}
			fmt.Fprint(out(cmd), renderOverview(activity))
			return nil
		},
	}

	cmd.Flags().UintVar(&cmID, "cm", 0, "Course module id")
	cmd.Flags().UintVar(&userID, "user", 0, "User viewing the overview")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the API representation instead of a table")
	return cmd
}

// buildOverviewService wires a process-local overview service; unread counts are never shared from the CLI.
func buildOverviewService(cmd *cobra.Command, app *App) (service.OverviewService, error) {
	ctx := cmd.Context()
	db, err := app.OpenDB(ctx)
	if err != nil {
		return nil, err
	}

	packages, err := storage.New(ctx, app.Config, app.Logger)
	if err != nil {
		return nil, err
	}
	inspector, err := h5p.NewInspector()
	if err != nil {
		return nil, err
	}

	forums := repository.NewForumRepository(db)
	courses := repository.NewCourseRepository(db)
	tracker := service.NewReadTracker(forums, nil, nil, service.ReadTrackerConfig{
		OldPostWindow: app.Config.Forum.OldPostWindow(),
	}, app.Logger)

	factory := service.NewOverviewFactory(service.OverviewDeps{
		Forums:   forums,
		H5P:      repository.NewH5PRepository(db),
		Courses:  courses,
		Tracker:  tracker,
		Packages: service.NewPackageTyper(packages, inspector),
		Settings: overview.ForumSettings{AllowForcedReadTracking: app.Config.Forum.AllowForcedReadTracking},
		Logger:   app.Logger,
	})
	return service.NewOverviewService(courses, factory, app.Logger), nil
}

package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/yjchoi-grove/vibe-coding/routes"
	"github.com/yjchoi-grove/vibe-coding/services"
	"github.com/yjchoi-grove/vibe-coding/storage"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

func init() {
	serveCommand := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	RootCommand.AddCommand(serveCommand)
}

func runServe(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	deps := routes.Deps{
		Config:    a.cfg,
		Board:     a.board,
		Blacklist: utils.NewTokenBlacklist(a.redis),
	}
	if local, ok := a.store.(*storage.LocalStore); ok {
		deps.UploadRoot = local.Root()
	}
	r, err := routes.SetupRouter(deps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if a.cfg.UploadPurgeEnabled {
		purger := services.NewPurger(a.db, a.store, a.clock, utils.Logger,
			time.Duration(a.cfg.UploadPurgeAfterMin)*time.Minute)
		purger.Start(ctx, 5*time.Minute)
	}

	srv := utils.GraceServer(":"+a.cfg.AppPort, r)
	srv.OnShutdown(cancel)
	utils.Sugar.Infof("Starting server on port %s (graceful)", a.cfg.AppPort)
	return srv.ListenAndServe()
}

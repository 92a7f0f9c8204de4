package main

import (
	"github.com/Digital-Creators-Team/bingo-game-module/config"
	"github.com/Digital-Creators-Team/bingo-game-module/wire"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		Long: `Run the game server until SIGINT or SIGTERM.

The config is read from --config, or else from <config-dir>/config-<ENV>.yaml
where ENV (or APP_ENV) defaults to development.`,
		RunE: runServe,
	}
	cmd.Flags().StringP("config", "c", "", "Config file")
	cmd.Flags().String("config-dir", "configs", "Directory searched for config-<env>.yaml")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	if file != "" {
		return config.Load(file)
	}
	dir, _ := cmd.Flags().GetString("config-dir")
	return config.LoadByEnv(dir)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, cleanup, err := wire.InitializeApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	app.UseCommonMiddlewares()
	app.RegisterHealthCheck()
	app.RegisterCommonGameRoutes()

	logger := app.Logger()
	logger.Info().
		Str("version", version).
		Str("game_code", app.GetGameCode()).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Game.Store).
		Str("events", cfg.Game.Events).
		Bool("shared_jackpot", cfg.Game.SharedJackpot).
		Msg("Starting bingo service")
	return app.Run()
}

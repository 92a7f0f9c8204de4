package main

import (
	"fmt"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a player token for local testing",
		Long: `Issue a signed player token. Without --secret the jwt.secret of the loaded
config is used.

Example:
  bingod token --player p1 --username alice --ttl 1h`,
		Args: cobra.NoArgs,
		RunE: runToken,
	}
	cmd.Flags().StringP("player", "p", "", "Player id (required)")
	cmd.Flags().StringP("username", "u", "", "Display name")
	cmd.Flags().String("secret", "", "Signing secret")
	cmd.Flags().Duration("ttl", 0, "Token lifetime (default jwt.expiration, or 24h with --secret)")
	cmd.Flags().StringP("config", "c", "", "Config file")
	cmd.Flags().String("config-dir", "configs", "Directory searched for config-<env>.yaml")
	_ = cmd.MarkFlagRequired("player")
	return cmd
}

func runToken(cmd *cobra.Command, _ []string) error {
	player, _ := cmd.Flags().GetString("player")
	username, _ := cmd.Flags().GetString("username")
	secret, _ := cmd.Flags().GetString("secret")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if secret == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("no --secret given and no config: %w", err)
		}
		secret = cfg.JWT.Secret
		if ttl == 0 {
			ttl = cfg.JWT.Expiration
		}
	}
	if secret == "" {
		return fmt.Errorf("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	tok, err := auth.GenerateToken(secret, player, username, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
	return err
}

package main

import (
	"fmt"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/logging"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/random"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/sim"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play rounds headless and report the return to player",
		Long: `Play rounds headless with auto-mark and graceful bingos and print a report.

Examples:
  bingod simulate --rounds 100000
  bingod simulate --variant classic75 --multiplier 10 --seed 7 --format json
  bingod simulate --variant-dir config/game`,
		Args: cobra.NoArgs,
		RunE: runSimulate,
	}
	cmd.Flags().IntP("rounds", "r", 10000, "Number of rounds to play")
	cmd.Flags().IntP("multiplier", "m", 1, "Bet multiplier")
	cmd.Flags().String("variant", game.Bingo47Code, "Registered variant code")
	cmd.Flags().String("variant-dir", "", "Load the variant from a YAML file or directory instead")
	cmd.Flags().Int("cards", 1, "Cards in play each round")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 seeds from the clock)")
	cmd.Flags().StringP("format", "f", "yaml", "Output format: yaml or json")
	cmd.Flags().String("log-level", "warn", "Log level")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	rounds, _ := cmd.Flags().GetInt("rounds")
	multiplier, _ := cmd.Flags().GetInt("multiplier")
	code, _ := cmd.Flags().GetString("variant")
	dir, _ := cmd.Flags().GetString("variant-dir")
	cards, _ := cmd.Flags().GetInt("cards")
	seed, _ := cmd.Flags().GetUint64("seed")
	format, _ := cmd.Flags().GetString("format")
	level, _ := cmd.Flags().GetString("log-level")

	if format != "yaml" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	variant, err := simulationVariant(code, dir)
	if err != nil {
		return err
	}
	src := random.NewTimeSeeded()
	if seed != 0 {
		src = random.New(seed)
	}

	logger := logging.NewWithWriter(logging.Config{Level: level, Format: "console"}, cmd.ErrOrStderr())
	rep, err := sim.Run(cmd.Context(), sim.Config{
		Variant:       variant,
		BetMultiplier: multiplier,
		Rounds:        rounds,
		Cards:         cards,
		Source:        src,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

func simulationVariant(code, dir string) (*game.Config, error) {
	if dir != "" {
		return game.LoadVariant(dir, nil)
	}
	variant, ok := game.DefaultRegistry.Get(code)
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (registered: %v)", code, game.DefaultRegistry.GetAll())
	}
	return variant, nil
}

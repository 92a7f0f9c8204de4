package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Digital-Creators-Team/bingo-game-module/auth"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/sim"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSimulateYAML(t *testing.T) {
	out, err := execute(t, "simulate", "--rounds", "40", "--multiplier", "5", "--seed", "9")
	require.NoError(t, err)

	var rep sim.Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "bingo47", rep.GameCode)
	assert.Equal(t, 40, rep.Rounds)
	assert.Equal(t, 500, rep.Bet)
	assert.Equal(t, int64(40*500), rep.TotalBet)
	assert.NotEmpty(t, rep.RTP)
}

func TestSimulateJSONIsDeterministic(t *testing.T) {
	args := []string{"simulate", "--variant", "classic75", "--rounds", "20", "--seed", "3", "--format", "json"}
	first, err := execute(t, args...)
	require.NoError(t, err)
	second, err := execute(t, args...)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var rep sim.Report
	require.NoError(t, jsoniter.Unmarshal([]byte(first), &rep))
	assert.Equal(t, "classic75", rep.GameCode)
	assert.Zero(t, rep.JackpotWins)
}

func TestSimulateRejectsBadInput(t *testing.T) {
	tests := [][]string{
		{"simulate", "--format", "xml"},
		{"simulate", "--variant", "keno"},
		{"simulate", "--multiplier", "3"},
		{"simulate", "--rounds", "0"},
	}
	for _, args := range tests {
		_, err := execute(t, args...)
		assert.Error(t, err, strings.Join(args, " "))
	}
}

func TestTokenWithSecret(t *testing.T) {
	out, err := execute(t, "token", "--player", "p1", "--username", "alice", "--secret", "s3cret", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.ParseToken("s3cret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.PlayerID)
	assert.Equal(t, "alice", claims.Username)
}

func TestTokenFromConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("jwt:\n  secret: from-config\n  expiration: 2h\n"), 0o644))

	out, err := execute(t, "token", "--player", "p2", "--config", file)
	require.NoError(t, err)
	claims, err := auth.ParseToken("from-config", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "p2", claims.PlayerID)
}

func TestTokenRequiresPlayer(t *testing.T) {
	_, err := execute(t, "token", "--secret", "s3cret")
	assert.Error(t, err)
}

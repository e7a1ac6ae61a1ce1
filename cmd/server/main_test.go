package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papeleria/backend/internal/config"
	"papeleria/backend/internal/store/memory"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestValidateConfigRejectsWeakSecret(t *testing.T) {
	err := validateConfig(config.Config{AuthSecret: "short", DBDriver: "sqlite", SQLitePath: "x.db"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateConfigAcceptsKnownDrivers(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite", "memory"} {
		err := validateConfig(config.Config{AuthSecret: strongSecret, DBDriver: driver, SQLitePath: "papeleria.db"})
		if err != nil {
			t.Fatalf("%s: expected config to pass, got %v", driver, err)
		}
	}
}

func TestValidateConfigRejectsUnknownDriver(t *testing.T) {
	err := validateConfig(config.Config{AuthSecret: strongSecret, DBDriver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestOpenRepositoryMemory(t *testing.T) {
	repo, closeFn, err := openRepository(context.Background(), config.Config{DBDriver: "memory"})
	require.NoError(t, err)
	assert.Nil(t, closeFn)
	assert.IsType(t, &memory.Store{}, repo)
}

func TestOpenRepositorySQLiteMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papeleria.db")
	repo, closeFn, err := openRepository(context.Background(), config.Config{DBDriver: "sqlite", SQLitePath: path, AutoMigrate: true})
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	defer closeFn()

	users, err := repo.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSetupLogger(t *testing.T) {
	previous := log.Logger
	defer func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()

	var buf bytes.Buffer
	setupLogger(config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, `"message":"shown"`), out)

	buf.Reset()
	setupLogger(config.Config{LogLevel: "nonsense"}, &buf)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

// ABOUTME: Tests for the inventory binary's argument parsing, paths and output helpers
// ABOUTME: Exercises config fallback, rendered init config and the color log handler

package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/store-inventory/internal/config"
	"github.com/2389/store-inventory/internal/contract"
	"github.com/2389/store-inventory/internal/inventory"
	"github.com/2389/store-inventory/internal/store"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("INVENTORY_CONFIG", "/etc/inventory.toml")
	assert.Equal(t, "/etc/inventory.toml", getConfigPath())

	t.Setenv("INVENTORY_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "inventory", "config.yaml"), getConfigPath())
}

func TestGetDataPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	assert.Equal(t, filepath.Join("/data", "inventory"), getDataPath())
}

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("INVENTORY_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	cfg, path, err := loadConfig()
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, filepath.Join(dir, "data", "inventory", config.DefaultDatabaseFile), cfg.Database.Path)
}

func TestLoadConfig_ExplicitPathMustExist(t *testing.T) {
	t.Setenv("INVENTORY_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, _, err := loadConfig()
	assert.Error(t, err)
}

func TestRenderConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := renderConfig(initAnswers{
		HTTPAddr:  "127.0.0.1:9999",
		DBPath:    filepath.Join(dir, "inv.db"),
		Driver:    "sqlite3",
		JWTSecret: "s3cret",
		LogLevel:  "debug",
		LogFormat: "json",
	})
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.HTTPAddr)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer

	reader := bufio.NewReader(strings.NewReader("custom\n\n"))
	assert.Equal(t, "custom", prompt(&out, reader, "Question", "default"))
	assert.Equal(t, "default", prompt(&out, reader, "Question", "default"))
	// EOF returns the default
	assert.Equal(t, "default", prompt(&out, reader, "Question", "default"))
	assert.Contains(t, out.String(), "Question [default]: ")
}

func TestParseItemArgs(t *testing.T) {
	form, positional, err := parseItemArgs([]string{"7", "--name", "Widget", "--quantity=-3", "-p", "10", "--desc", "blue"})
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, positional)
	assert.Equal(t, map[string]string{
		"name":        "Widget",
		"quantity":    "-3",
		"price":       "10",
		"description": "blue",
	}, form)

	_, _, err = parseItemArgs([]string{"--color", "red"})
	assert.ErrorContains(t, err, "unknown flag")

	_, _, err = parseItemArgs([]string{"--name"})
	assert.ErrorContains(t, err, "requires a value")
}

func TestParseIDArg(t *testing.T) {
	id, err := parseIDArg([]string{"42"}, "show <id>")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseIDArg(nil, "show <id>")
	assert.ErrorContains(t, err, "usage: show <id>")

	_, err = parseIDArg([]string{"abc"}, "show <id>")
	assert.ErrorContains(t, err, "invalid item id")
}

func TestParseListArgs(t *testing.T) {
	q, err := parseListArgs([]string{"--name", "wid", "--in-stock", "--order", "-price"})
	require.NoError(t, err)
	assert.Equal(t, store.Filter{
		store.Where(contract.ColumnName, store.OpLike, "%wid%"),
		store.Where(contract.ColumnQuantity, store.OpGt, 0),
	}, q.Filter)
	assert.Equal(t, []store.Order{{Column: contract.ColumnPrice, Desc: true}}, q.Order)

	_, err = parseListArgs([]string{"--order", "color"})
	assert.Error(t, err)
}

func TestPrintItems(t *testing.T) {
	var out bytes.Buffer
	printItems(&out, []inventory.Row{
		{
			contract.ColumnID:          int64(1),
			contract.ColumnName:        "Widget",
			contract.ColumnDescription: "",
			contract.ColumnQuantity:    int64(5),
			contract.ColumnPrice:       int64(10),
		},
	})

	assert.Contains(t, out.String(), "Widget")
	assert.Contains(t, out.String(), contract.DescriptionPlaceholder)

	out.Reset()
	printItems(&out, nil)
	assert.Contains(t, out.String(), "(no items)")
}

func TestDescribe(t *testing.T) {
	assert.EqualError(t, describe(inventory.ErrNotFound, 3), "item 3 not found")
	assert.EqualError(t, describe(inventory.ErrOutOfStock, 3), "not sufficient quantity")
}

func TestColorHandler(t *testing.T) {
	var out bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "info", Format: "text"}, &out)

	logger.With("component", "store").Info("opened", "path", "/tmp/x.db")
	logger.Debug("hidden")
	logger.WithGroup("req").Warn("slow", "ms", 250)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "INF opened component=store path=/tmp/x.db")
	assert.Contains(t, lines[1], "WRN slow req.ms=250")
}

func TestNewLogger_JSON(t *testing.T) {
	var out bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &out)
	logger.Debug("hello")

	assert.Contains(t, out.String(), `"msg":"hello"`)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestCommandLogger_QuietByDefault(t *testing.T) {
	logger := commandLogger(config.LoggingConfig{Level: "debug"})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}

func TestOpenInventory(t *testing.T) {
	cfg := config.Default(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	inv, closeStore, err := openInventory(cfg, logger)
	require.NoError(t, err)
	defer closeStore()

	id, err := inv.Insert(context.Background(), contract.Collection(), inventory.ParseValues(map[string]string{
		"name":     " Widget ",
		"quantity": "",
	}))
	require.NoError(t, err)

	item, err := inv.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Widget", item.Name)
	assert.Equal(t, int64(0), item.Quantity)
}

// ABOUTME: Entry point for the inventory command line and HTTP server
// ABOUTME: Resolves config and data paths, then dispatches to subcommands

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/store-inventory/internal/api"
	"github.com/2389/store-inventory/internal/auth"
	"github.com/2389/store-inventory/internal/config"
	"github.com/2389/store-inventory/internal/inventory"
	"github.com/2389/store-inventory/internal/store"
)

// version is set via -ldflags at build time.
var version = "dev"

const banner = `
 _                      _
(_)_ ____   _____ _ __ | |_ ___  _ __ _   _
| | '_ \ \ / / _ \ '_ \| __/ _ \| '__| | | |
| | | | \ V /  __/ | | | || (_) | |  | |_| |
|_|_| |_|\_/ \___|_| |_|\__\___/|_|   \__, |
                                      |___/
`

// getConfigPath returns the path to the config file.
// Priority: INVENTORY_CONFIG env var > XDG_CONFIG_HOME/inventory/config.yaml > ~/.config/inventory/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("INVENTORY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "inventory", "config.yaml")
}

// getDataPath returns the path to the inventory data directory.
// Priority: XDG_DATA_HOME/inventory > ~/.local/share/inventory
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "inventory")
}

// loadConfig loads the config file, falling back to defaults when the
// default-location file does not exist. An explicit INVENTORY_CONFIG must
// exist. The returned path is empty when defaults are used.
func loadConfig() (*config.Config, string, error) {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err == nil {
		return cfg, configPath, nil
	}
	if errors.Is(err, fs.ErrNotExist) && os.Getenv("INVENTORY_CONFIG") == "" {
		return config.Default(getDataPath()), "", nil
	}
	return nil, "", fmt.Errorf("loading config: %w", err)
}

// openInventory opens the configured database and wraps it in an inventory
// store. The returned close function releases the database.
func openInventory(cfg *config.Config, logger *slog.Logger) (*inventory.Store, func() error, error) {
	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path,
		store.WithDriver(cfg.Database.Driver),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return inventory.New(sqlStore, inventory.WithLogger(logger)), sqlStore.Close, nil
}

func usage() {
	fmt.Println("Usage: inventory <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                               Start the HTTP API server")
	fmt.Println("  init                                Create a new config file interactively")
	fmt.Println("  list [--name S] [--in-stock] [--order F]")
	fmt.Println("                                      List items")
	fmt.Println("  show <id>                           Show one item")
	fmt.Println("  add --name N [--desc D] [--quantity Q] [--price P]")
	fmt.Println("                                      Add an item")
	fmt.Println("  update <id> [--name N] [--desc D] [--quantity Q] [--price P]")
	fmt.Println("                                      Change an item")
	fmt.Println("  sell <id>                           Sell one unit")
	fmt.Println("  delete <id>                         Delete an item")
	fmt.Println("  clear --yes                         Delete every item")
	fmt.Println("  token [--subject S] [--ttl D]       Issue an API token")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "list", "ls":
		err = runList(ctx, args)
	case "show":
		err = runShow(ctx, args)
	case "add":
		err = runAdd(ctx, args)
	case "update":
		err = runUpdate(ctx, args)
	case "sell":
		err = runSell(ctx, args)
	case "delete", "rm":
		err = runDelete(ctx, args)
	case "clear":
		err = runClear(ctx, args)
	case "token":
		err = runToken(args)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	var verifier auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		v, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			return fmt.Errorf("creating JWT verifier: %w", err)
		}
		verifier = v
	}

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	if configPath == "" {
		fmt.Printf("Config:    ")
		gray.Println("(defaults)")
	} else {
		fmt.Printf("Config:    %s\n", configPath)
	}
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s (%s)\n", cfg.Database.Path, cfg.Database.Driver)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("MCP:       http://%s/mcp\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Auth:      ")
	if verifier != nil {
		fmt.Println("bearer token required for writes")
	} else {
		yellow.Println("disabled (no auth.jwt_secret)")
	}
	fmt.Println()

	logger.Info("starting inventory server",
		"config", configPath,
		"database", cfg.Database.Path,
		"http_addr", cfg.Server.HTTPAddr,
	)

	inv, closeStore, err := openInventory(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := api.New(inv, api.Config{
		Addr:            cfg.Server.HTTPAddr,
		Verifier:        verifier,
		IdempotencyTTL:  cfg.API.IdempotencyTTL,
		IdempotencySize: cfg.API.IdempotencySize,
		Version:         version,
	}, logger)

	return srv.Run(ctx)
}

// runToken issues a bearer token signed with the configured secret.
func runToken(args []string) error {
	subject := "cli"
	var ttl time.Duration

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--subject", "-s":
			if i+1 >= len(args) {
				return fmt.Errorf("--subject requires a value")
			}
			subject = args[i+1]
			i++
		case "--ttl", "-t":
			if i+1 >= len(args) {
				return fmt.Errorf("--ttl requires a value")
			}
			d, err := time.ParseDuration(args[i+1])
			if err != nil {
				return fmt.Errorf("invalid --ttl: %w", err)
			}
			ttl = d
			i++
		default:
			return fmt.Errorf("usage: token [--subject <name>] [--ttl <duration>]")
		}
	}

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		if configPath == "" {
			configPath = getConfigPath()
		}
		return fmt.Errorf("auth.jwt_secret not configured in %s", configPath)
	}
	if ttl == 0 {
		ttl = cfg.Auth.TokenTTL
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return fmt.Errorf("creating JWT verifier: %w", err)
	}
	token, err := verifier.Generate(subject, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	return nil
}

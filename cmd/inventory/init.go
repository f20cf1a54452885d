// ABOUTME: Interactive config file creation for the inventory binary
// ABOUTME: Prompts for server, database, auth and logging settings and writes YAML

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// initAnswers holds the values collected by runInit.
type initAnswers struct {
	HTTPAddr  string
	DBPath    string
	Driver    string
	JWTSecret string
	LogLevel  string
	LogFormat string
}

// renderConfig produces the YAML config file for answers.
func renderConfig(a initAnswers) string {
	var cfg strings.Builder
	cfg.WriteString("# inventory configuration\n")
	cfg.WriteString("# Generated by inventory init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", a.HTTPAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", a.DBPath))
	cfg.WriteString(fmt.Sprintf("  driver: %q\n", a.Driver))
	cfg.WriteString("\n")

	if a.JWTSecret != "" {
		cfg.WriteString("auth:\n")
		cfg.WriteString(fmt.Sprintf("  jwt_secret: %q\n", a.JWTSecret))
		cfg.WriteString("  token_ttl: \"24h\"\n")
		cfg.WriteString("\n")
	}

	cfg.WriteString("api:\n")
	cfg.WriteString("  idempotency_ttl: \"10m\"\n")
	cfg.WriteString("  idempotency_size: 1000\n")
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", a.LogLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", a.LogFormat))

	return cfg.String()
}

func generateSecret() (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(secretBytes), nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("inventory configuration setup")
	fmt.Println("=============================")
	fmt.Println()

	defaultDBPath := filepath.Join(getDataPath(), "inventory.db")

	outputFile := prompt(os.Stdout, reader, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(os.Stdout, reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var a initAnswers

	fmt.Println("\n--- Server Configuration ---")
	a.HTTPAddr = prompt(os.Stdout, reader, "HTTP address", "127.0.0.1:8080")

	fmt.Println("\n--- Database Configuration ---")
	a.DBPath = prompt(os.Stdout, reader, "SQLite database path", defaultDBPath)
	a.Driver = prompt(os.Stdout, reader, "SQLite driver (sqlite/sqlite3)", "sqlite")

	fmt.Println("\n--- Auth Configuration ---")
	if isYes(prompt(os.Stdout, reader, "Require tokens for writes?", "yes")) {
		secret, err := generateSecret()
		if err != nil {
			return err
		}
		a.JWTSecret = secret
	}

	fmt.Println("\n--- Logging Configuration ---")
	a.LogLevel = prompt(os.Stdout, reader, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(os.Stdout, reader, "Log format (text/json)", "text")

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// 0600 because the file may hold the JWT secret
	if err := os.WriteFile(outputFile, []byte(renderConfig(a)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(a.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("\n  ✓ Config written to %s\n", outputFile)
	green.Printf("  ✓ Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Println("  inventory serve")
	if a.JWTSecret != "" {
		fmt.Println("To get a token for writes:")
		fmt.Println("  inventory token")
	}

	return nil
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "yes" || s == "y"
}

func prompt(out io.Writer, reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

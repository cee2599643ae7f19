// Package cli implements the akson-cards CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akson-app/cards/internal/config"
	"github.com/akson-app/cards/internal/store"
)

var dbPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "akson-cards",
	Short: "Spaced-repetition flashcards on the command line",
	Long:  "A flashcard scheduler built on an FSRS-style memory model. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $AKSON_DB or ~/.akson-cards/cards.db)")
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg
}

func openStore(cfg *config.Config) *store.SQLiteStore {
	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

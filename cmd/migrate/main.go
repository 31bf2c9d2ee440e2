// Package main provides a CLI tool for managing the stockledger schema.
//
// Usage:
//
//	migrate up
//	migrate down
//	migrate steps N
//	migrate version
//	migrate force N
package main

import (
	"fmt"
	"os"
	"strconv"

	"stockledger/internal/config"
	"stockledger/internal/infrastructure/migration"
	"stockledger/migrations"
	"stockledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalw("failed to load database config", "error", err)
	}

	m, err := migration.New(migrations.FS, dbCfg.URL, log)
	if err != nil {
		log.Fatalw("failed to open migrator", "error", err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warnw("failed to close migrator", "error", err)
		}
	}()

	if err := run(m, os.Args[1:]); err != nil {
		log.Errorw("migration command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(m *migration.Migrator, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "force":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(n)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a number", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[1], err)
	}
	return n, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up | down | steps N | version | force N")
}

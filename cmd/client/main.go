package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pollwatch/devicebind/internal/client/api"
	"github.com/pollwatch/devicebind/internal/client/cli"
	"github.com/pollwatch/devicebind/internal/client/iocli"
	"github.com/pollwatch/devicebind/internal/client/storage/boltdb"
	"github.com/pollwatch/devicebind/internal/fingerprint"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "pollwatch-client.db", "Path to local database")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]

	ctx := context.Background()

	// Версия клиента попадает в user-agent сигнал отпечатка
	fingerprint.ClientVersion = Version

	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	apiClient := api.NewClient(*serverURL)

	c := cli.New(iocli.NewStdio(), apiClient, boltStorage, boltStorage, fingerprint.NewHostSource())
	c.Run(ctx, command, args[1:])
}

func printVersion() {
	fmt.Printf("PollWatch Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

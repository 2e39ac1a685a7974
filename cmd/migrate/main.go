package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/skillcompass/skillcompass/internal/database"
	"github.com/skillcompass/skillcompass/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, "migrations")
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}
	defer migrator.Close()

	switch command {
	case "up":
		handleUp(migrator)
	case "down":
		handleDown(migrator)
	case "steps":
		handleSteps(migrator, os.Args[2:])
	case "version":
		handleVersion(migrator)
	case "force":
		handleForce(migrator, os.Args[2:])
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("SkillCompass Database Migration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up           Run all available migrations")
	fmt.Println("  down         Rollback all migrations")
	fmt.Println("  steps <n>    Run n migrations up (positive) or down (negative)")
	fmt.Println("  version      Show current migration version")
	fmt.Println("  force <v>    Force set migration version without running migrations")
	fmt.Println("  help         Show this help message")
}

func handleUp(migrator *database.Migrator) {
	fmt.Println("Running migrations...")
	if err := migrator.Up(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Println("Migrations completed")
	handleVersion(migrator)
}

func handleDown(migrator *database.Migrator) {
	fmt.Println("Rolling back all migrations...")
	if err := migrator.Down(); err != nil {
		log.Fatalf("Rollback failed: %v", err)
	}
	fmt.Println("Rollback completed")
}

func handleSteps(migrator *database.Migrator, args []string) {
	if len(args) < 1 {
		log.Fatal("steps requires a number, e.g. 'migrate steps 1' or 'migrate steps -1'")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("Invalid step count %q: %v", args[0], err)
	}

	fmt.Printf("Running %d migration steps...\n", n)
	if err := migrator.Steps(n); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Println("Done")
	handleVersion(migrator)
}

func handleVersion(migrator *database.Migrator) {
	version, dirty, err := migrator.Version()
	if err != nil {
		log.Fatalf("Failed to read migration version: %v", err)
	}
	if dirty {
		fmt.Printf("Current version: %d (dirty)\n", version)
		return
	}
	fmt.Printf("Current version: %d\n", version)
}

func handleForce(migrator *database.Migrator, args []string) {
	if len(args) < 1 {
		log.Fatal("force requires a version, e.g. 'migrate force 3'")
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("Invalid version %q: %v", args[0], err)
	}

	if err := migrator.Force(v); err != nil {
		log.Fatalf("Force failed: %v", err)
	}
	fmt.Printf("Forced version to %d\n", v)
}

// Command migrate applies or rolls back database schema migrations
// without starting the server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/database"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Configuration file path")
		down       = flag.Bool("down", false, "Roll back all migrations instead of applying them")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if *down {
		if err := database.Rollback(db); err != nil {
			log.Fatalf("rollback failed: %v", err)
		}
		fmt.Println("rollback complete")
		return
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	fmt.Println("migrations applied")
	os.Exit(0)
}

// seed - generates demo traffic against a local database
package main

import (
	"context"
	"flag"
	"log"

	"sitepulse/internal"
	"sitepulse/internal/seeder"
)

func main() {
	visitorCount := flag.Int("visitors", 200, "number of demo visitors to generate")
	flag.Parse()

	app, err := internal.NewApp()
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	if err := app.DBManager.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	s := seeder.NewSeeder(app.DBManager, nil, *visitorCount)
	if err := s.Seed(context.Background()); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Demo traffic seeded")
}

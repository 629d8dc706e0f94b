package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"listing-browser/internal/config"
	"listing-browser/internal/database"
	"listing-browser/internal/models"
	"listing-browser/internal/store"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Listings []models.ListingInput `yaml:"listings"`
}

func loadSeed(path string) ([]models.ListingInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return f.Listings, nil
}

// seed creates every input through the store. Invalid entries are skipped
// and reported; a store failure stops the run.
func seed(ctx context.Context, s *store.Store, inputs []models.ListingInput) (created, skipped int, err error) {
	for i, in := range inputs {
		l, err := s.Create(ctx, in)
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			log.Printf("Seed: skipping entry %d (%q): %s: %s", i+1, in.Title, verr.Field, verr.Message)
			skipped++
		case err != nil:
			return created, skipped, fmt.Errorf("entry %d: %w", i+1, err)
		default:
			log.Printf("Seed: created %s (%s)", l.ID, l.Title)
			created++
		}
	}
	return created, skipped, nil
}

// loadExport reads a document export: a JSON object of listing documents keyed
// by id. Entries come back ordered by id.
func loadExport(path string) ([]models.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	var docs map[string]map[string]interface{}
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse export file: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.Listing, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.ListingFromDocument(id, docs[id]))
	}
	return out, nil
}

// importListings writes exported listings as they are, keeping their ids and
// createdAt. Entries that would not pass the form validation are skipped.
func importListings(ctx context.Context, repo store.Repository, listings []models.Listing) (imported, skipped int, err error) {
	for _, l := range listings {
		if verr := models.ValidateListing(l.Input()); verr != nil {
			log.Printf("Seed: skipping %s: %v", l.ID, verr)
			skipped++
			continue
		}
		if err := repo.Insert(ctx, l); err != nil {
			return imported, skipped, fmt.Errorf("listing %s: %w", l.ID, err)
		}
		imported++
	}
	return imported, skipped, nil
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	seedPath := flag.String("file", "config/seed.yaml", "path to the YAML seed file")
	exportPath := flag.String("import", "", "path to a JSON document export; replaces -file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ApplyEnv()
	if cfg.Database.Type == "memory" {
		log.Fatal("Seeding the in-memory store has no effect; choose a persistent database type")
	}

	repo, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open listing store: %v", err)
	}

	if *exportPath != "" {
		defer repo.Close()
		listings, err := loadExport(*exportPath)
		if err != nil {
			log.Fatal(err)
		}
		imported, skipped, err := importListings(context.Background(), repo, listings)
		if err != nil {
			log.Fatalf("Import failed after %d listings: %v", imported, err)
		}
		log.Printf("Import complete. Imported: %d, Skipped: %d", imported, skipped)
		return
	}

	inputs, err := loadSeed(*seedPath)
	if err != nil {
		log.Fatal(err)
	}
	s := store.New(repo, nil)
	defer s.Close()

	created, skipped, err := seed(context.Background(), s, inputs)
	if err != nil {
		log.Fatalf("Seed failed after %d listings: %v", created, err)
	}
	log.Printf("Seed complete. Created: %d, Skipped: %d", created, skipped)
}

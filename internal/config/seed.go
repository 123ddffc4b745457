package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
)

// UserSeed is one user entry in the users seed file.
type UserSeed struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	BirthDate  string `json:"birthDate"`
	Occupation string `json:"occupation"`
}

// RateSeed is one directed exchange rate in the rates seed file.
type RateSeed struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

// CommerciantSeed is one merchant entry in the commerciants seed file.
type CommerciantSeed struct {
	Name     string `json:"commerciant"`
	IBAN     string `json:"account"`
	Type     string `json:"type"`
	Strategy string `json:"cashbackStrategy"`
}

// SeedData is the decoded content of all three seed files.
type SeedData struct {
	Users        []UserSeed
	Rates        []RateSeed
	Commerciants []CommerciantSeed
}

// LoadSeed reads and decodes the three seed files in parallel.
// Empty paths yield empty slices, so a server can boot with no seed data.
func LoadSeed(ctx context.Context, cfg *Config) (*SeedData, error) {
	seed := &SeedData{}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loadJSONFile(cfg.UsersFile, &seed.Users)
	})
	g.Go(func() error {
		return loadJSONFile(cfg.RatesFile, &seed.Rates)
	})
	g.Go(func() error {
		return loadJSONFile(cfg.CommerciantsFile, &seed.Commerciants)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return seed, nil
}

func loadJSONFile(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return nil
}

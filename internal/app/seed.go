package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"paperbroker/internal/broker"
	"paperbroker/internal/logger"
	"paperbroker/internal/store/sqlite"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type seedAccount struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Capital string `yaml:"capital"`
}

type seedFile struct {
	Accounts []seedAccount `yaml:"accounts"`
}

func readSeedFile(path string) (seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, fmt.Errorf("read seed file failed: %w", err)
	}
	var f seedFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return seedFile{}, fmt.Errorf("parse seed file failed: %w", err)
	}
	return f, nil
}

// seedAccounts creates the accounts listed in the seed file. Accounts
// whose id already exists are skipped, so repeated boots never reset
// capital. Returns how many were created.
func seedAccounts(ctx context.Context, st *sqlite.Store, path string) (int, error) {
	f, err := readSeedFile(path)
	if err != nil {
		return 0, err
	}
	created := 0
	for i, row := range f.Accounts {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			return created, fmt.Errorf("seed account %d: name is required", i)
		}
		capital, err := decimal.NewFromString(strings.TrimSpace(row.Capital))
		if err != nil {
			return created, fmt.Errorf("seed account %q: bad capital %q: %w", name, row.Capital, err)
		}
		if capital.IsNegative() {
			return created, fmt.Errorf("seed account %q: capital must not be negative", name)
		}
		id := strings.TrimSpace(row.ID)
		if id == "" {
			return created, fmt.Errorf("seed account %q: id is required", name)
		}
		existing, err := st.FindAccount(ctx, id)
		if err != nil {
			return created, err
		}
		if existing != nil {
			logger.Debugf("seed account %s already exists, skipping", id)
			continue
		}
		now := time.Now().UTC()
		acct := &broker.Account{
			ID:               id,
			Name:             name,
			AvailableCapital: capital,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := st.CreateAccount(ctx, acct); err != nil {
			return created, fmt.Errorf("create seed account %q: %w", name, err)
		}
		created++
	}
	return created, nil
}

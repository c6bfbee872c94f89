// Package refdata holds reference tables that are loaded once at startup and
// passed to whoever needs them.
package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"tours_manager/internal/domain"
)

// countryNamespace seeds deterministic country ids so reloading the same file
// (or importing it into another database) yields the same ids.
var countryNamespace = uuid.MustParse("6f1c1f0e-7a43-4d55-9a0b-3c2b8f6d1e11")

func CountryID(name string) uuid.UUID {
	return uuid.NewSHA1(countryNamespace, []byte(strings.ToLower(name)))
}

// Countries is an immutable lookup table.
type Countries struct {
	all    []domain.Country
	byID   map[uuid.UUID]domain.Country
	byName map[string]domain.Country
}

// LoadCountries reads country names from CSV. Every non-empty field of every
// record is a name; duplicates (case-insensitive) are dropped.
func LoadCountries(r io.Reader) (*Countries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	c := &Countries{byID: map[uuid.UUID]domain.Country{}, byName: map[string]domain.Country{}}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("countries csv: %w", err)
		}
		for _, f := range rec {
			name := strings.TrimSpace(f)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if _, dup := c.byName[key]; dup {
				continue
			}
			country := domain.Country{ID: CountryID(name), Name: name}
			c.byName[key] = country
			c.byID[country.ID] = country
			c.all = append(c.all, country)
		}
	}
	sort.Slice(c.all, func(i, j int) bool { return c.all[i].Name < c.all[j].Name })
	return c, nil
}

func LoadCountriesFile(path string) (*Countries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCountries(f)
}

// All returns the countries sorted by name. The slice is a copy.
func (c *Countries) All() []domain.Country {
	out := make([]domain.Country, len(c.all))
	copy(out, c.all)
	return out
}

func (c *Countries) Len() int { return len(c.all) }

func (c *Countries) ByID(id uuid.UUID) (domain.Country, bool) {
	v, ok := c.byID[id]
	return v, ok
}

func (c *Countries) ByName(name string) (domain.Country, bool) {
	v, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

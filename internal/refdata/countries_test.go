package refdata_test

import (
	"strings"
	"testing"

	"tours_manager/internal/refdata"
)

func TestLoadCountries(t *testing.T) {
	in := "Russia, France,Germany\nfrance,\"Côte d'Ivoire\"\n\n"
	c, err := refdata.LoadCountries(strings.NewReader(in))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("expected 4 unique countries, got %d: %+v", c.Len(), c.All())
	}
	all := c.All()
	if all[0].Name != "Côte d'Ivoire" || all[3].Name != "Russia" {
		t.Fatalf("not sorted: %+v", all)
	}
	fr, ok := c.ByName(" FRANCE ")
	if !ok || fr.Name != "France" {
		t.Fatalf("by name: %+v %v", fr, ok)
	}
	if got, ok := c.ByID(fr.ID); !ok || got.Name != "France" {
		t.Fatalf("by id: %+v", got)
	}
	if fr.ID != refdata.CountryID("france") {
		t.Fatalf("ids must be deterministic")
	}

	all[0].Name = "mutated"
	if c.All()[0].Name == "mutated" {
		t.Fatalf("All must return a copy")
	}
}

func TestLoadCountries_BadCSV(t *testing.T) {
	if _, err := refdata.LoadCountries(strings.NewReader("\"unterminated")); err == nil {
		t.Fatalf("expected csv error")
	}
}

func TestLoadCountriesFile_Missing(t *testing.T) {
	if _, err := refdata.LoadCountriesFile("does/not/exist.csv"); err == nil {
		t.Fatalf("expected error")
	}
}

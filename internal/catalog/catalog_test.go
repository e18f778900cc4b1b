package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/olliwhaller-hue/newborbbq-bot/internal/token"
)

func TestDefault(t *testing.T) {
	c, err := Default(token.CheckLabels)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	houses := c.Houses()
	if len(houses) != 2 || houses[0] != "Небесная 16" || houses[1] != "Миля 3" {
		t.Fatalf("unexpected houses: %v", houses)
	}

	entrances, err := c.Entrances("Миля 3")
	if err != nil {
		t.Fatalf("Entrances: %v", err)
	}
	if len(entrances) != 5 {
		t.Fatalf("expected 5 entrances, got %v", entrances)
	}

	flats, err := c.Flats("Миля 3", "2")
	if err != nil {
		t.Fatalf("Flats: %v", err)
	}
	if len(flats) != 34 || flats[0] != "56" || flats[len(flats)-1] != "89" {
		t.Fatalf("unexpected flats of Миля 3/2: first=%s last=%s n=%d", flats[0], flats[len(flats)-1], len(flats))
	}
	if !Contains(flats, "60") || Contains(flats, "55") {
		t.Fatalf("flat membership broken: %v", flats)
	}
}

func TestUnknownKeys(t *testing.T) {
	c, err := Default(nil)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if _, err := c.Entrances("Нет такого"); !errors.Is(err, ErrUnknownHouse) {
		t.Fatalf("Entrances err = %v, want ErrUnknownHouse", err)
	}
	if _, err := c.Flats("Миля 3", "9"); !errors.Is(err, ErrUnknownEntrance) {
		t.Fatalf("Flats err = %v, want ErrUnknownEntrance", err)
	}
}

func TestFlatsReturnsCopy(t *testing.T) {
	c, err := Default(nil)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	flats, _ := c.Flats("Небесная 16", "1")
	flats[0] = "changed"
	again, _ := c.Flats("Небесная 16", "1")
	if again[0] != "1" {
		t.Fatalf("catalog mutated through returned slice: %v", again[0])
	}
}

func TestLoad_ListAndRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `
houses:
  - name: "Дом 1"
    entrances:
      - label: "A"
        flats: ["1a", "1b"]
        range: [2, 4]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(path, token.CheckLabels)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	flats, err := c.Flats("Дом 1", "A")
	if err != nil {
		t.Fatalf("Flats: %v", err)
	}
	want := []string{"1a", "1b", "2", "3", "4"}
	if len(flats) != len(want) {
		t.Fatalf("flats = %v, want %v", flats, want)
	}
	for i := range want {
		if flats[i] != want[i] {
			t.Fatalf("flats = %v, want %v", flats, want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"no houses":          `houses: []`,
		"duplicate house":    "houses:\n  - {name: A, entrances: [{label: '1', range: [1, 2]}]}\n  - {name: A, entrances: [{label: '1', range: [1, 2]}]}\n",
		"duplicate entrance": "houses:\n  - {name: A, entrances: [{label: '1', range: [1, 2]}, {label: '1', range: [3, 4]}]}\n",
		"duplicate flat":     "houses:\n  - {name: A, entrances: [{label: '1', flats: ['2'], range: [1, 2]}]}\n",
		"reversed range":     "houses:\n  - {name: A, entrances: [{label: '1', range: [5, 1]}]}\n",
		"no flats":           "houses:\n  - {name: A, entrances: [{label: '1'}]}\n",
		"no entrances":       "houses:\n  - {name: A}\n",
		"underscore":         "houses:\n  - {name: A_B, entrances: [{label: '1', range: [1, 2]}]}\n",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data), token.CheckLabels); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: err = %v, want ErrInvalid", name, err)
		}
	}
}

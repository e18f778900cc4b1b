// Package catalog: справочник домов жилого комплекса с подъездами и квартирами, только чтение.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownHouse    = errors.New("unknown house")
	ErrUnknownEntrance = errors.New("unknown entrance")
	ErrInvalid         = errors.New("invalid catalog")
)

// Catalog: справочник, на который опирается сценарий бронирования.
type Catalog interface {
	Houses() []string
	Entrances(house string) ([]string, error)
	Flats(house, entrance string) ([]string, error)
}

type entrance struct {
	label string
	flats []string
}

type house struct {
	name      string
	entrances []entrance
}

// Static: неизменяемый справочник в памяти.
type Static struct {
	houses []house
}

type fileCatalog struct {
	Houses []fileHouse `yaml:"houses"`
}

type fileHouse struct {
	Name      string         `yaml:"name"`
	Entrances []fileEntrance `yaml:"entrances"`
}

type fileEntrance struct {
	Label string   `yaml:"label"`
	Flats []string `yaml:"flats"`
	// Range [first, last] включительно; дополняет Flats.
	Range []int `yaml:"range"`
}

// Validator проверяет метки справочника, например что они влезут в токен.
// Parse вызывает его для каждой тройки дом/подъезд/квартира.
type Validator func(house, entrance, flat string) error

// Load читает справочник из YAML-файла.
func Load(path string, validate Validator) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data, validate)
}

// Parse собирает справочник из YAML.
func Parse(data []byte, validate Validator) (*Static, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Static{}
	seenHouses := make(map[string]bool)
	for _, fh := range fc.Houses {
		name := strings.TrimSpace(fh.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: house without name", ErrInvalid)
		}
		if seenHouses[name] {
			return nil, fmt.Errorf("%w: duplicate house %q", ErrInvalid, name)
		}
		seenHouses[name] = true

		h := house{name: name}
		seenEntrances := make(map[string]bool)
		for _, fe := range fh.Entrances {
			label := strings.TrimSpace(fe.Label)
			if label == "" {
				return nil, fmt.Errorf("%w: house %q has entrance without label", ErrInvalid, name)
			}
			if seenEntrances[label] {
				return nil, fmt.Errorf("%w: house %q: duplicate entrance %q", ErrInvalid, name, label)
			}
			seenEntrances[label] = true

			flats, err := expandFlats(fe)
			if err != nil {
				return nil, fmt.Errorf("%w: %s, entrance %s: %v", ErrInvalid, name, label, err)
			}
			h.entrances = append(h.entrances, entrance{label: label, flats: flats})
		}
		if len(h.entrances) == 0 {
			return nil, fmt.Errorf("%w: house %q has no entrances", ErrInvalid, name)
		}
		c.houses = append(c.houses, h)
	}
	if len(c.houses) == 0 {
		return nil, fmt.Errorf("%w: no houses", ErrInvalid)
	}

	if validate != nil {
		if err := c.validate(validate); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func expandFlats(fe fileEntrance) ([]string, error) {
	flats := make([]string, 0, len(fe.Flats))
	seen := make(map[string]bool)
	add := func(f string) error {
		f = strings.TrimSpace(f)
		if f == "" {
			return errors.New("empty flat label")
		}
		if seen[f] {
			return fmt.Errorf("duplicate flat %q", f)
		}
		seen[f] = true
		flats = append(flats, f)
		return nil
	}

	for _, f := range fe.Flats {
		if err := add(f); err != nil {
			return nil, err
		}
	}
	if len(fe.Range) > 0 {
		if len(fe.Range) != 2 || fe.Range[0] > fe.Range[1] {
			return nil, fmt.Errorf("range must be [first, last], got %v", fe.Range)
		}
		for i := fe.Range[0]; i <= fe.Range[1]; i++ {
			if err := add(strconv.Itoa(i)); err != nil {
				return nil, err
			}
		}
	}
	if len(flats) == 0 {
		return nil, errors.New("no flats")
	}
	return flats, nil
}

func (c *Static) validate(validate Validator) error {
	for _, h := range c.houses {
		for _, e := range h.entrances {
			for _, f := range e.flats {
				if err := validate(h.name, e.label, f); err != nil {
					return fmt.Errorf("%w: %v", ErrInvalid, err)
				}
			}
		}
	}
	return nil
}

func (c *Static) Houses() []string {
	names := make([]string, len(c.houses))
	for i, h := range c.houses {
		names[i] = h.name
	}
	return names
}

func (c *Static) Entrances(houseName string) ([]string, error) {
	h, err := c.house(houseName)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(h.entrances))
	for i, e := range h.entrances {
		labels[i] = e.label
	}
	return labels, nil
}

func (c *Static) Flats(houseName, entranceLabel string) ([]string, error) {
	h, err := c.house(houseName)
	if err != nil {
		return nil, err
	}
	for _, e := range h.entrances {
		if e.label == entranceLabel {
			return append([]string(nil), e.flats...), nil
		}
	}
	return nil, fmt.Errorf("%w: %s / %s", ErrUnknownEntrance, houseName, entranceLabel)
}

func (c *Static) house(name string) (*house, error) {
	for i := range c.houses {
		if c.houses[i].name == name {
			return &c.houses[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownHouse, name)
}

// Contains: есть ли s среди values.
func Contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

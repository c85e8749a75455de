package cards

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeckList describes the card pools a match is built from.
type DeckList struct {
	StartingDeck []DeckEntry `yaml:"starting_deck"`
	Explorer     string      `yaml:"explorer"`
	TradeDeck    []DeckEntry `yaml:"trade_deck"`
}

// DeckEntry represents a card and its count in a deck.
type DeckEntry struct {
	Card  string `yaml:"card"`
	Count int    `yaml:"count"`
}

// ParseDeckList parses deck list YAML.
func ParseDeckList(data []byte) (*DeckList, error) {
	var dl DeckList
	if err := yaml.Unmarshal(data, &dl); err != nil {
		return nil, fmt.Errorf("parse deck YAML: %w", err)
	}
	return &dl, nil
}

// LoadDeckList reads a deck list file.
func LoadDeckList(path string) (*DeckList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck list: %w", err)
	}
	return ParseDeckList(data)
}

// Validate checks every referenced card against the catalog.
func (d *DeckList) Validate(c *Catalog) error {
	var errs []error
	check := func(section string, entries []DeckEntry) {
		for _, e := range entries {
			if e.Count <= 0 {
				errs = append(errs, fmt.Errorf("%s: %q has non-positive count %d", section, e.Card, e.Count))
			}
			if _, ok := c.Get(e.Card); !ok {
				errs = append(errs, fmt.Errorf("%s: unknown card %q", section, e.Card))
			}
		}
	}
	check("starting_deck", d.StartingDeck)
	check("trade_deck", d.TradeDeck)
	if len(d.StartingDeck) == 0 {
		errs = append(errs, errors.New("starting_deck is empty"))
	}
	if d.Explorer != "" {
		if _, ok := c.Get(d.Explorer); !ok {
			errs = append(errs, fmt.Errorf("explorer: unknown card %q", d.Explorer))
		}
	}
	return errors.Join(errs...)
}

// Expand resolves entries into one card type per copy, in listed order.
func Expand(c *Catalog, entries []DeckEntry) []*CardType {
	var out []*CardType
	for _, e := range entries {
		t := c.MustGet(e.Card)
		for i := 0; i < e.Count; i++ {
			out = append(out, t)
		}
	}
	return out
}

package cards

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the closed, read-only registry of card types for a process.
type Catalog struct {
	types map[string]*CardType
	order []string
}

// NewCatalog validates the given types as a whole and builds a catalog.
// Nothing is registered unless every type is valid.
func NewCatalog(types ...*CardType) (*Catalog, error) {
	c := &Catalog{
		types: make(map[string]*CardType, len(types)),
		order: make([]string, 0, len(types)),
	}
	var errs []error
	for i, t := range types {
		if t == nil {
			errs = append(errs, fmt.Errorf("card %d: nil definition", i))
			continue
		}
		if err := validateType(t); err != nil {
			errs = append(errs, fmt.Errorf("card %q: %w", t.ID, err))
			continue
		}
		if _, dup := c.types[t.ID]; dup {
			errs = append(errs, fmt.Errorf("card %q: duplicate id", t.ID))
			continue
		}
		c.types[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	// References are resolved only once every id is known.
	for _, id := range c.order {
		t := c.types[id]
		if t.Spawns != "" {
			if _, ok := c.types[t.Spawns]; !ok {
				errs = append(errs, fmt.Errorf("card %q: spawns unknown card %q", id, t.Spawns))
			}
		}
		for _, list := range [][]Effect{t.Effects, t.AllyEffects, t.ScrapEffects} {
			for _, e := range list {
				if e.Target == "" {
					continue
				}
				if _, ok := c.types[e.Target]; !ok {
					errs = append(errs, fmt.Errorf("card %q: effect %s targets unknown card %q", id, e.Type, e.Target))
				}
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func validateType(t *CardType) error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("missing id")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("missing name")
	}
	if t.Cost < 0 {
		return fmt.Errorf("negative cost %d", t.Cost)
	}
	if t.IsBase() {
		if t.Defense <= 0 {
			return fmt.Errorf("base requires positive defense, got %d", t.Defense)
		}
	} else if t.Defense != 0 || t.Frontier || t.Temporary {
		return fmt.Errorf("%s cannot carry base attributes", t.Kind)
	}
	for _, list := range [][]Effect{t.Effects, t.AllyEffects, t.ScrapEffects} {
		for _, e := range list {
			if e.Type == EffectUpgradeCard && e.Upgrade == UpgradeNone {
				return errors.New("upgrade_card effect requires an upgrade kind")
			}
		}
	}
	if t.AutoDraw == AutoDrawOnDraw && !t.HasDrawEffect() {
		return errors.New("auto_draw set without a draw_cards effect")
	}
	return nil
}

// Get looks up a card type by id.
func (c *Catalog) Get(id string) (*CardType, bool) {
	t, ok := c.types[id]
	return t, ok
}

// MustGet looks up a card type that trusted content guarantees exists.
func (c *Catalog) MustGet(id string) *CardType {
	t, ok := c.types[id]
	if !ok {
		panic(fmt.Sprintf("cards: unregistered card type %q", id))
	}
	return t
}

// All returns the card types in load order.
func (c *Catalog) All() []*CardType {
	out := make([]*CardType, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.types[id])
	}
	return out
}

// IDs returns the sorted card type ids.
func (c *Catalog) IDs() []string {
	ids := append([]string(nil), c.order...)
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered types.
func (c *Catalog) Len() int {
	return len(c.order)
}

// cardRecord is the on-disk shape of one card definition.
type cardRecord struct {
	ID           string         `json:"id" yaml:"id"`
	Name         string         `json:"name" yaml:"name"`
	Cost         *int           `json:"cost" yaml:"cost"`
	Faction      string         `json:"faction" yaml:"faction"`
	Kind         string         `json:"kind" yaml:"kind"`
	Effects      []effectRecord `json:"effects" yaml:"effects"`
	AllyEffects  []effectRecord `json:"ally_effects" yaml:"ally_effects"`
	ScrapEffects []effectRecord `json:"scrap_effects" yaml:"scrap_effects"`
	Spawns       string         `json:"spawns" yaml:"spawns"`
	AutoDraw     string         `json:"auto_draw" yaml:"auto_draw"`
	Defense      int            `json:"defense" yaml:"defense"`
	Frontier     bool           `json:"frontier" yaml:"frontier"`
	Temporary    bool           `json:"temporary_base" yaml:"temporary_base"`
}

type effectRecord struct {
	Type    string `json:"type" yaml:"type"`
	Value   int    `json:"value" yaml:"value"`
	Target  string `json:"target" yaml:"target"`
	Upgrade string `json:"upgrade" yaml:"upgrade"`
}

func (r cardRecord) toType() (*CardType, error) {
	if r.Cost == nil {
		return nil, fmt.Errorf("card %q: missing cost", r.ID)
	}
	if strings.TrimSpace(r.Kind) == "" {
		return nil, fmt.Errorf("card %q: missing kind", r.ID)
	}
	faction, err := ParseFaction(r.Faction)
	if err != nil {
		return nil, fmt.Errorf("card %q: %w", r.ID, err)
	}
	kind, err := ParseKind(r.Kind)
	if err != nil {
		return nil, fmt.Errorf("card %q: %w", r.ID, err)
	}
	autoDraw, err := ParseAutoDrawTrigger(r.AutoDraw)
	if err != nil {
		return nil, fmt.Errorf("card %q: %w", r.ID, err)
	}
	t := &CardType{
		ID:        strings.TrimSpace(r.ID),
		Name:      r.Name,
		Cost:      *r.Cost,
		Faction:   faction,
		Kind:      kind,
		Spawns:    r.Spawns,
		AutoDraw:  autoDraw,
		Defense:   r.Defense,
		Frontier:  r.Frontier,
		Temporary: r.Temporary,
	}
	if t.Effects, err = convertEffects(r.Effects); err != nil {
		return nil, fmt.Errorf("card %q effects: %w", r.ID, err)
	}
	if t.AllyEffects, err = convertEffects(r.AllyEffects); err != nil {
		return nil, fmt.Errorf("card %q ally_effects: %w", r.ID, err)
	}
	if t.ScrapEffects, err = convertEffects(r.ScrapEffects); err != nil {
		return nil, fmt.Errorf("card %q scrap_effects: %w", r.ID, err)
	}
	return t, nil
}

func convertEffects(records []effectRecord) ([]Effect, error) {
	if len(records) == 0 {
		return nil, nil
	}
	out := make([]Effect, 0, len(records))
	for _, r := range records {
		upgrade, err := ParseUpgradeKind(r.Upgrade)
		if err != nil {
			return nil, err
		}
		out = append(out, Effect{
			Type:    ParseEffectType(r.Type),
			Value:   r.Value,
			Target:  strings.TrimSpace(r.Target),
			Upgrade: upgrade,
		})
	}
	return out, nil
}

// Format selects the content encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks an encoding from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseCatalog decodes a list of card definitions and builds a catalog.
func ParseCatalog(data []byte, format Format) (*Catalog, error) {
	var records []cardRecord
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse card YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse card JSON: %w", err)
		}
	}

	types := make([]*CardType, 0, len(records))
	var errs []error
	for _, r := range records {
		t, err := r.toType()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		types = append(types, t)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewCatalog(types...)
}

// LoadCatalogFile reads card definitions from a JSON or YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card definitions: %w", err)
	}
	return ParseCatalog(data, FormatForPath(path))
}

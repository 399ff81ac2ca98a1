package sector

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Unclassified is the sector of any symbol missing from the map.
const Unclassified = "Unclassified"

//go:embed sectors.yaml
var defaultSectors []byte

// Map is an injectable symbol to sector lookup.
type Map struct {
	bySymbol map[string]string
}

type sectorFile struct {
	Sectors map[string][]string `yaml:"sectors"`
}

// DefaultMap returns the embedded table.
func DefaultMap() Map {
	m, err := ParseMap(defaultSectors)
	if err != nil {
		panic(fmt.Sprintf("embedded sector map: %v", err))
	}
	return m
}

// LoadMap reads a sector table from a YAML file of the form
// "sectors: {Name: [SYM, ...]}".
func LoadMap(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Map{}, fmt.Errorf("read sector map: %w", err)
	}
	return ParseMap(data)
}

func ParseMap(data []byte) (Map, error) {
	var f sectorFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Map{}, fmt.Errorf("parse sector map: %w", err)
	}
	m := Map{bySymbol: make(map[string]string)}
	for sector, symbols := range f.Sectors {
		if strings.TrimSpace(sector) == "" || sector == Unclassified {
			return Map{}, fmt.Errorf("invalid sector name %q", sector)
		}
		for _, sym := range symbols {
			key := Normalize(sym)
			if prev, ok := m.bySymbol[key]; ok && prev != sector {
				return Map{}, fmt.Errorf("symbol %s listed under %s and %s", key, prev, sector)
			}
			m.bySymbol[key] = sector
		}
	}
	return m, nil
}

// NewMap builds a map directly from symbol to sector pairs.
func NewMap(pairs map[string]string) Map {
	m := Map{bySymbol: make(map[string]string, len(pairs))}
	for sym, sector := range pairs {
		m.bySymbol[Normalize(sym)] = sector
	}
	return m
}

// Normalize strips the exchange suffix and upper-cases a ticker.
func Normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, suffix := range []string{".NS", ".BO"} {
		s = strings.TrimSuffix(s, suffix)
	}
	return s
}

// Lookup returns the sector and whether the symbol is classified.
func (m Map) Lookup(symbol string) (string, bool) {
	sector, ok := m.bySymbol[Normalize(symbol)]
	if !ok {
		return Unclassified, false
	}
	return sector, true
}

func (m Map) Len() int {
	return len(m.bySymbol)
}

// Sectors lists the distinct sector names, sorted.
func (m Map) Sectors() []string {
	seen := make(map[string]bool)
	for _, s := range m.bySymbol {
		seen[s] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

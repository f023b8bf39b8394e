// Package severity holds the disease severity catalog joined onto predictions.
package severity

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/crimson-sun/vettriage/internal/model"
)

// Defaults applied to unknown diseases and to catalog entries missing a field.
const (
	DefaultRecommendation = "Consult with a veterinarian for proper diagnosis and treatment."
	DefaultDescription    = "No description available"
)

var (
	// ErrCatalogLoad wraps every failure to read or parse a catalog file.
	ErrCatalogLoad = errors.New("severity: catalog load failed")
	// ErrUnknownDisease is returned by Update for a disease not in the catalog.
	ErrUnknownDisease = errors.New("severity: unknown disease")
)

// Catalog maps disease names to severity records. Lookups take a read lock;
// curation (Add, Update) takes the write lock.
type Catalog struct {
	mu      sync.RWMutex
	records map[string]model.SeverityRecord
}

// New builds a catalog from records. Later records replace earlier ones with
// the same disease name.
func New(records []model.SeverityRecord) *Catalog {
	c := &Catalog{records: make(map[string]model.SeverityRecord, len(records))}
	for _, r := range records {
		c.records[r.Disease] = clone(r)
	}
	return c
}

// Load reads a JSON object keyed by disease name. Unrecognised severity or
// urgency tags are stored as Unknown.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogLoad, err)
	}
	var raw map[string]model.SeverityRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCatalogLoad, path, err)
	}
	c := &Catalog{records: make(map[string]model.SeverityRecord, len(raw))}
	for name, r := range raw {
		r.Disease = name
		if sev, urg, ok := knownTags(r); !ok {
			slog.Warn("unrecognised catalog tag stored as Unknown", "disease", name,
				"severity", r.Severity, "urgency", r.Urgency)
			r.Severity, r.Urgency = sev, urg
		}
		c.records[name] = r
	}
	return c, nil
}

// knownTags maps r's severity and urgency onto the known tags. Empty tags
// stay empty so Lookup can default them; anything unrecognised becomes
// Unknown. ok is false if either tag was replaced.
func knownTags(r model.SeverityRecord) (model.Severity, model.Urgency, bool) {
	sev, urg, ok := r.Severity, r.Urgency, true
	if sev != "" {
		if v, known := model.ParseSeverity(string(sev)); !known {
			sev, ok = v, false
		}
	}
	if urg != "" {
		if v, known := model.ParseUrgency(string(urg)); !known {
			urg, ok = v, false
		}
	}
	return sev, urg, ok
}

// Lookup returns the record for disease with missing fields filled from the
// defaults. It never fails: unknown diseases get an Unknown/Unknown record.
func (c *Catalog) Lookup(disease string) model.SeverityRecord {
	c.mu.RLock()
	r, ok := c.records[disease]
	c.mu.RUnlock()
	if !ok {
		r = model.SeverityRecord{Disease: disease}
	} else {
		r = clone(r)
	}
	return withDefaults(r)
}

// Get returns the stored record and whether disease is in the catalog.
func (c *Catalog) Get(disease string) (model.SeverityRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[disease]
	return clone(r), ok
}

func withDefaults(r model.SeverityRecord) model.SeverityRecord {
	if r.Severity == "" {
		r.Severity = model.SeverityUnknown
	}
	if r.Urgency == "" {
		r.Urgency = model.UrgencyUnknown
	}
	if r.Recommendation == "" {
		r.Recommendation = DefaultRecommendation
	}
	if r.Description == "" {
		r.Description = DefaultDescription
	}
	return r
}

func clone(r model.SeverityRecord) model.SeverityRecord {
	r.TypicalAnimals = slices.Clone(r.TypicalAnimals)
	return r
}

// Len returns the number of diseases in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Diseases returns every disease name, sorted.
func (c *Catalog) Diseases() []string {
	return c.filter(func(model.SeverityRecord) bool { return true })
}

// BySeverity returns the sorted names of diseases tagged s.
func (c *Catalog) BySeverity(s model.Severity) []string {
	return c.filter(func(r model.SeverityRecord) bool { return r.Severity == s })
}

// ByUrgency returns the sorted names of diseases tagged u.
func (c *Catalog) ByUrgency(u model.Urgency) []string {
	return c.filter(func(r model.SeverityRecord) bool { return r.Urgency == u })
}

// ByAnimal returns the sorted names of diseases listing animal as typical.
func (c *Catalog) ByAnimal(animal string) []string {
	return c.filter(func(r model.SeverityRecord) bool {
		return slices.Contains(r.TypicalAnimals, animal)
	})
}

func (c *Catalog) filter(keep func(model.SeverityRecord) bool) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []string{}
	for name, r := range c.records {
		if keep(r) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Stats summarizes the catalog.
type Stats struct {
	Total    int                    `json:"total_diseases"`
	Severity map[model.Severity]int `json:"severity_distribution"`
	Urgency  map[model.Urgency]int  `json:"urgency_distribution"`
	Animals  map[string]int         `json:"animal_distribution"`
}

// Stats counts diseases per severity, urgency and typical animal. Entries
// missing a severity or urgency count as Unknown.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{
		Total:    len(c.records),
		Severity: make(map[model.Severity]int),
		Urgency:  make(map[model.Urgency]int),
		Animals:  make(map[string]int),
	}
	for _, r := range c.records {
		r = withDefaults(r)
		s.Severity[r.Severity]++
		s.Urgency[r.Urgency]++
		for _, a := range r.TypicalAnimals {
			s.Animals[a]++
		}
	}
	return s
}

// Add inserts or replaces the record for r.Disease.
func (c *Catalog) Add(r model.SeverityRecord) error {
	if r.Disease == "" {
		return fmt.Errorf("severity: disease name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[r.Disease] = clone(r)
	return nil
}

// Update merges the non-empty fields of patch into the existing record for
// disease.
func (c *Catalog) Update(disease string, patch model.SeverityRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[disease]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDisease, disease)
	}
	if patch.Severity != "" {
		r.Severity = patch.Severity
	}
	if patch.Urgency != "" {
		r.Urgency = patch.Urgency
	}
	if patch.Recommendation != "" {
		r.Recommendation = patch.Recommendation
	}
	if patch.Description != "" {
		r.Description = patch.Description
	}
	if patch.TypicalAnimals != nil {
		r.TypicalAnimals = slices.Clone(patch.TypicalAnimals)
	}
	c.records[disease] = r
	return nil
}

// Save writes the catalog as indented JSON keyed by disease name, replacing
// path atomically.
func (c *Catalog) Save(path string) error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.records, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("severity: encode catalog: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("severity: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("severity: write catalog: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("severity: write catalog: %w", err)
	}
	return nil
}

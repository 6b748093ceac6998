// Package languages holds the table that maps submission languages to
// sandbox language ids. The table is loaded from a TOML file and can be
// reloaded at runtime when the sandbox runtime catalogue changes.
package languages

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/TreasureHunt-org/backend/internal/domain"
)

// DefaultLanguages is used when no catalogue file is configured
var DefaultLanguages = []domain.Language{
	{Name: "C", SandboxID: 4, DisplayName: "C (Clang 7.0.1)"},
	{Name: "C_PLUS_PLUS", SandboxID: 10, DisplayName: "C++ (GCC 7.4.0)"},
	{Name: "JAVA", SandboxID: 26, DisplayName: "Java (OpenJDK 13.0.1)"},
	{Name: "PYTHON", SandboxID: 34, DisplayName: "Python (3.8.1)"},
}

type catalogFile struct {
	Languages []domain.Language `toml:"language"`
}

// Catalog is a concurrency-safe, reloadable language table
type Catalog struct {
	path    string
	logger  *zap.Logger
	mu      sync.RWMutex
	byName  map[string]domain.Language
	modTime time.Time
}

// NewCatalog creates a catalogue. With an empty path the built-in table is used.
func NewCatalog(path string, logger *zap.Logger) (*Catalog, error) {
	c := &Catalog{
		path:   path,
		logger: logger,
	}
	if path == "" {
		c.replace(DefaultLanguages)
		return c, nil
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes a TOML catalogue and validates its entries
func Parse(data []byte) ([]domain.Language, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("could not parse language catalogue: %w", err)
	}
	if len(file.Languages) == 0 {
		return nil, fmt.Errorf("language catalogue is empty")
	}

	seen := make(map[string]struct{}, len(file.Languages))
	for i, lang := range file.Languages {
		key := normalize(lang.Name)
		if key == "" {
			return nil, fmt.Errorf("language #%d has no name", i+1)
		}
		if lang.SandboxID <= 0 {
			return nil, fmt.Errorf("language %q has invalid sandbox id %d", lang.Name, lang.SandboxID)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("language %q is listed twice", lang.Name)
		}
		seen[key] = struct{}{}
	}
	return file.Languages, nil
}

// Reload re-reads the catalogue file. On error the previous table stays active.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}
	info, err := os.Stat(c.path)
	if err != nil {
		return fmt.Errorf("could not stat language catalogue: %w", err)
	}
	// A broken file is attempted once per modification, not on every tick
	c.mu.Lock()
	c.modTime = info.ModTime()
	c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("could not read language catalogue: %w", err)
	}
	langs, err := Parse(data)
	if err != nil {
		return err
	}

	c.replace(langs)

	c.logger.Info("Language catalogue loaded",
		zap.String("path", c.path),
		zap.Int("languages", len(langs)),
	)
	return nil
}

// Watch polls the catalogue file and reloads it whenever it changes.
// It blocks until ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context, interval time.Duration) {
	if c.path == "" || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.changed() {
				continue
			}
			if err := c.Reload(); err != nil {
				c.logger.Error("Failed to reload language catalogue, keeping previous table",
					zap.String("path", c.path),
					zap.Error(err),
				)
			}
		}
	}
}

// Resolve looks up a language by name, case-insensitively
func (c *Catalog) Resolve(name string) (domain.Language, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lang, ok := c.byName[normalize(name)]
	return lang, ok
}

// List returns the languages sorted by name
func (c *Catalog) List() []domain.Language {
	c.mu.RLock()
	out := make([]domain.Language, 0, len(c.byName))
	for _, lang := range c.byName {
		out = append(out, lang)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

func (c *Catalog) changed() bool {
	info, err := os.Stat(c.path)
	if err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !info.ModTime().Equal(c.modTime)
}

func (c *Catalog) replace(langs []domain.Language) {
	byName := make(map[string]domain.Language, len(langs))
	for _, lang := range langs {
		byName[normalize(lang.Name)] = lang
	}
	c.mu.Lock()
	c.byName = byName
	c.mu.Unlock()
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

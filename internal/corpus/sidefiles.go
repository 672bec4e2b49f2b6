package corpus

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"blemap/internal/paths"
)

// SymbolMap maps a symbol signature to the strings or field names the
// extractor associated with it.
type SymbolMap map[string][]string

// SymbolSource supplies the per-application strings and fields.
type SymbolSource interface {
	Strings(appKey string) SymbolMap
	Fields(appKey string) SymbolMap
}

// SideFiles reads strings/<app>.json and fields/<app>_xref_read.json,
// keeping the most recently used files in memory. A missing file is an
// empty map.
type SideFiles struct {
	stringsDir string
	fieldsDir  string
	logger     *slog.Logger
	cache      *lru.Cache[string, SymbolMap]
}

// NewSideFiles creates a side-file source caching up to size files.
func NewSideFiles(stringsDir, fieldsDir string, size int, logger *slog.Logger) (*SideFiles, error) {
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[string, SymbolMap](size)
	if err != nil {
		return nil, err
	}
	return &SideFiles{stringsDir: stringsDir, fieldsDir: fieldsDir, logger: logger, cache: cache}, nil
}

// Strings implements SymbolSource.
func (s *SideFiles) Strings(appKey string) SymbolMap {
	if s.stringsDir == "" {
		return SymbolMap{}
	}
	return s.load(s.stringsDir, appKey, paths.StringsFile)
}

// Fields implements SymbolSource.
func (s *SideFiles) Fields(appKey string) SymbolMap {
	if s.fieldsDir == "" {
		return SymbolMap{}
	}
	return s.load(s.fieldsDir, appKey, paths.FieldsFile)
}

// load tries the key as given, then lower-cased, since extractors name side
// files after the raw application key.
func (s *SideFiles) load(dir, appKey string, name func(dir, key string) string) SymbolMap {
	candidates := []string{name(dir, appKey)}
	if lower := strings.ToLower(appKey); lower != appKey {
		candidates = append(candidates, name(dir, lower))
	}
	for _, path := range candidates {
		if m, ok := s.cache.Get(path); ok {
			return m
		}
		if !paths.FileExists(path) {
			continue
		}
		m := s.read(path)
		s.cache.Add(path, m)
		return m
	}
	return SymbolMap{}
}

func (s *SideFiles) read(path string) SymbolMap {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("Cannot read side file", "path", path, "error", err)
		return SymbolMap{}
	}
	var m SymbolMap
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("Cannot decode side file", "path", path, "error", err)
		return SymbolMap{}
	}
	if m == nil {
		m = SymbolMap{}
	}
	s.logger.Debug("Loaded side file", "path", path, "symbols", len(m))
	return m
}

// MemorySource is an in-memory SymbolSource.
type MemorySource struct {
	StringsByApp map[string]SymbolMap
	FieldsByApp  map[string]SymbolMap
}

// Strings implements SymbolSource.
func (m MemorySource) Strings(appKey string) SymbolMap {
	if v, ok := m.StringsByApp[appKey]; ok {
		return v
	}
	return SymbolMap{}
}

// Fields implements SymbolSource.
func (m MemorySource) Fields(appKey string) SymbolMap {
	if v, ok := m.FieldsByApp[appKey]; ok {
		return v
	}
	return SymbolMap{}
}

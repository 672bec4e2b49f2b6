package registry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"blemap/internal/errors"
)

// Files names the reference inputs of a registry.
type Files struct {
	StandardList string
	MemberList   string
	KnownTable   string
}

// Load reads all three reference files. Any missing or unreadable file is
// fatal; malformed rows and entries are skipped and logged.
func Load(files Files, logger *slog.Logger) (*Registry, error) {
	logger.Info("Initialising adopted identifier data", "path", files.StandardList)
	standard, err := loadFile(files.StandardList, func(r io.Reader) ([]StandardEntry, error) {
		entries, skipped, err := ParseStandardList(r)
		if skipped > 0 {
			logger.Debug("Skipped malformed adopted-list rows", "rows", skipped)
		}
		return entries, err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Initialising member identifier list", "path", files.MemberList)
	members, err := loadFile(files.MemberList, ParseMemberList)
	if err != nil {
		return nil, err
	}

	logger.Info("Initialising known-functionality data", "path", files.KnownTable)
	known, err := LoadKnownTable(files.KnownTable, logger)
	if err != nil {
		return nil, err
	}

	reg := New(standard, members, known)
	logger.Debug("Registry loaded",
		"standard", reg.StandardCount(),
		"services", len(reg.Services()),
		"members", reg.MemberCount(),
		"known", known.Len(),
	)
	return reg, nil
}

func loadFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, errors.New(errors.ReferenceMissing, "cannot open reference file "+path, err)
	}
	defer func() { _ = f.Close() }()

	v, err := parse(f)
	if err != nil {
		return zero, errors.New(errors.ReferenceInvalid, "cannot read reference file "+path, err)
	}
	return v, nil
}

// ParseStandardList reads the adopted identifier list. Each row has four
// comma-separated columns; only the third (short identifier, optional 0x
// prefix) and fourth (service name) are used. Rows with a different column
// count or a short identifier that is not four hex digits are skipped.
func ParseStandardList(r io.Reader) ([]StandardEntry, int, error) {
	var entries []StandardEntry
	skipped := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cols := strings.Split(line, ",")
		if len(cols) != 4 {
			skipped++
			continue
		}
		short := strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(cols[2]), "0x"), "0X"))
		if !isShortHex(short) {
			skipped++
			continue
		}
		entries = append(entries, StandardEntry{Short: short, Service: strings.TrimSpace(cols[3])})
	}
	return entries, skipped, scanner.Err()
}

// ParseMemberList reads newline-delimited short identifiers.
func ParseMemberList(r io.Reader) ([]string, error) {
	var members []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		members = append(members, strings.ToUpper(line))
	}
	return members, scanner.Err()
}

// LoadKnownTable reads the known-functionality table. Files ending in .toml
// are decoded as TOML; everything else as JSON.
func LoadKnownTable(path string, logger *slog.Logger) (*KnownTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ReferenceMissing, "cannot open reference file "+path, err)
	}

	var doc map[string]interface{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err = toml.Decode(string(data), &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, errors.New(errors.ReferenceInvalid, "cannot decode known-functionality table "+path, err)
	}

	table, skipped := BuildKnownTable(doc)
	for _, s := range skipped {
		logger.Debug("Skipped known-functionality entry",
			"path", strings.Join(s.Path, "/"),
			"value", s.Value,
			"reason", s.Reason,
		)
	}
	return table, nil
}

// BuildKnownTable converts a decoded document into a KnownTable.
func BuildKnownTable(doc map[string]interface{}) (*KnownTable, []Skipped) {
	var skipped []Skipped
	root, _ := buildNode(nil, doc, &skipped)
	return NewKnownTable(root), skipped
}

func isShortHex(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789ABCDEF", c) {
			return false
		}
	}
	return true
}

// String renders a skipped entry for diagnostics.
func (s Skipped) String() string {
	return fmt.Sprintf("%s: %s (%s)", strings.Join(s.Path, "/"), s.Value, s.Reason)
}

package corpus

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"

	"blemap/internal/errors"
)

// Load reads and merges one or more extractor output files. Files ending in
// .zst are zstd-compressed. A missing or undecodable file is fatal.
func Load(paths []string, logger *slog.Logger) (*Corpus, error) {
	if len(paths) == 0 {
		return nil, errors.New(errors.InputMissing, "no extraction corpus configured", nil)
	}

	hash, err := blake2b.New256(nil)
	if err != nil {
		return nil, errors.New(errors.InternalError, "cannot create corpus digest", err)
	}

	c := New()
	for _, path := range paths {
		logger.Info("Reading extractor output", "path", path)
		data, err := readFile(path)
		if err != nil {
			return nil, errors.New(errors.InputMissing, "cannot read extraction corpus "+path, err)
		}
		_, _ = hash.Write(data)

		raw, err := Decode(bytes.NewReader(data))
		if err != nil {
			return nil, errors.New(errors.InputMissing, "cannot decode extraction corpus "+path, err)
		}
		c.AddRaw(raw)
	}
	c.digest = hex.EncodeToString(hash.Sum(nil))

	logger.Info("Initialised per-app and per-identifier records",
		"apps", c.Len(),
		"identifiers", len(c.idOrder),
	)
	if c.skipped > 0 {
		logger.Warn("Skipped unparseable identifiers", "count", c.skipped)
	}
	return c, nil
}

// Decode parses one extractor output document.
func Decode(r io.Reader) (Raw, error) {
	var raw Raw
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if !strings.HasSuffix(strings.ToLower(path), ".zst") {
		return io.ReadAll(f)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

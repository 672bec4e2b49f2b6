// Package output writes result documents to disk.
//
// Documents are JSON with four-space indentation and HTML escaping disabled.
// Map keys come out sorted, so two runs over the same input produce
// byte-identical files. A destination ending in ".zst" is zstd-compressed.
package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"blemap/internal/errors"
)

// Indent is the indentation unit of written documents.
const Indent = "    "

// Encode produces the deterministic indented encoding of v, newline
// terminated.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Compressed reports whether path selects zstd output.
func Compressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".zst")
}

// WriteFile encodes v and writes it to path. The file is written to a
// temporary sibling first and renamed into place, so readers never see a
// partial document.
func WriteFile(path string, v interface{}) error {
	data, err := Encode(v)
	if err != nil {
		return errors.New(errors.OutputFailed, "cannot encode output", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.New(errors.OutputFailed, "cannot create output directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.New(errors.OutputFailed, "cannot create output file", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := write(tmp, data, Compressed(path)); err != nil {
		cleanup()
		return errors.New(errors.OutputFailed, "cannot write output file "+path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.New(errors.OutputFailed, "cannot close output file "+path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.New(errors.OutputFailed, "cannot move output file into place", err)
	}
	return nil
}

func write(w io.Writer, data []byte, compress bool) error {
	if !compress {
		_, err := w.Write(data)
		return err
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// ReadFile reads a document written by WriteFile into v.
func ReadFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if Compressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return err
		}
		defer dec.Close()
		r = dec
	}
	return json.NewDecoder(r).Decode(v)
}

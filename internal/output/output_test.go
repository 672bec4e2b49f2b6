package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blemap/internal/errors"
)

type doc struct {
	Name  string            `json:"name"`
	Items map[string][]int  `json:"items"`
	Note  string            `json:"note"`
	Extra map[string]string `json:"extra"`
}

func sample() doc {
	return doc{
		Name:  "b<a>",
		Items: map[string][]int{"z": {1}, "a": {}},
		Note:  "x",
		Extra: map[string]string{"k2": "v", "k1": "v"},
	}
}

func TestEncode_Deterministic(t *testing.T) {
	first, err := Encode(sample())
	require.NoError(t, err)
	second, err := Encode(sample())
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	s := string(first)
	assert.True(t, strings.HasSuffix(s, "\n"))
	assert.Contains(t, s, "\n    \"name\": \"b<a>\"")
	assert.Less(t, strings.Index(s, `"a"`), strings.Index(s, `"z"`))
	assert.Contains(t, s, `"a": []`)
}

func TestWriteFile_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteFile(path, sample()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want, _ := Encode(sample())
	assert.Equal(t, string(want), string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestWriteFile_Compressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json.zst")
	require.NoError(t, WriteFile(path, sample()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"name"`)

	var got doc
	require.NoError(t, ReadFile(path, &got))
	assert.Equal(t, sample(), got)
}

func TestWriteFile_EncodeError(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "out.json"), map[string]interface{}{"c": make(chan int)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.OutputFailed))
}

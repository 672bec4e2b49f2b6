package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blemap/internal/errors"
	"blemap/internal/identifier"
	"blemap/internal/slogutil"
)

const (
	heartRate   = "00002A37-0000-1000-8000-00805F9B34FB"
	nordicDFU   = "00001530-1212-EFDE-1523-785FEABCD123"
	nordicDFU2  = "8EC90001-F315-4F60-9FB8-838830DAEA50"
	ti          = "F000FFC0-0451-4000-B000-000000000000"
	vendorLight = "6E400001-B5A3-F393-E0A9-E50E24DCCA9E"
)

func TestParseStandardList(t *testing.T) {
	input := strings.Join([]string{
		"Name,Type,UUID,Service",
		"X,Y,2A05,Service Changed",
		"Heart Rate Measurement,org.bluetooth.characteristic,0x2A37,Heart Rate",
		"",
		"too,few,cols",
		"a,b,c,d,e",
		"Bad,Hex,0xZZZZ,Nope",
		"Device Name,org.bluetooth.characteristic,0x2a00 , GAP ",
	}, "\n")

	entries, skipped, err := ParseStandardList(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []StandardEntry{
		{Short: "2A05", Service: "Service Changed"},
		{Short: "2A37", Service: "Heart Rate"},
		{Short: "2A00", Service: "GAP"},
	}, entries)
	assert.Equal(t, 4, skipped)
}

func TestParseMemberList(t *testing.T) {
	members, err := ParseMemberList(strings.NewReader("feaa\n  FE59 \n\nfd6f\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"FEAA", "FE59", "FD6F"}, members)
}

func TestRegistryLookups(t *testing.T) {
	reg := New(
		[]StandardEntry{
			{Short: "2A05", Service: "GATT"},
			{Short: "2A00", Service: "GAP"},
			{Short: "2A37", Service: "Heart Rate"},
			{Short: "2A38", Service: "Heart Rate"},
		},
		[]string{"feaa"},
		nil,
	)

	service, ok := reg.Service("2A05")
	assert.True(t, ok)
	assert.Equal(t, "GATT", service)

	_, ok = reg.Service("ABCD")
	assert.False(t, ok)

	assert.True(t, reg.IsMember("FEAA"))
	assert.False(t, reg.IsMember("2A05"))

	assert.Equal(t, []string{"GATT", "GAP", "Heart Rate"}, reg.Services())
	assert.Equal(t, []string{"2A37", "2A38"}, reg.ServiceShorts("Heart Rate"))
	assert.Equal(t, 4, reg.StandardCount())
	assert.Equal(t, 1, reg.MemberCount())
	assert.Equal(t, 0, reg.Known().Len())
}

func TestBuildKnownTable_MixedDepths(t *testing.T) {
	doc := map[string]interface{}{
		"Fitness": []interface{}{strings.ToLower(heartRate)},
		"DFU": map[string]interface{}{
			"Nordic": []interface{}{nordicDFU, nordicDFU2},
			"TI":     []interface{}{ti, 42, "garbage"},
		},
		"Broken": 7,
	}

	table, skipped := BuildKnownTable(doc)

	assert.True(t, table.Contains(identifier.MustParse(heartRate)))
	assert.True(t, table.Contains(identifier.MustParse(nordicDFU2)))
	assert.True(t, table.Contains(identifier.MustParse(ti)))
	assert.False(t, table.Contains(identifier.MustParse(vendorLight)))
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, []string{"DFU", "Fitness"}, table.Categories())

	dfu, ok := table.Category("DFU")
	require.True(t, ok)
	assert.False(t, dfu.IsLeaf())
	assert.Equal(t, []string{"Nordic", "TI"}, dfu.Names())

	fitness, ok := table.Category("Fitness")
	require.True(t, ok)
	assert.True(t, fitness.IsLeaf())

	reasons := map[string]bool{}
	for _, s := range skipped {
		reasons[s.Reason] = true
	}
	assert.Len(t, skipped, 3)
	assert.True(t, reasons["not a string"])
	assert.True(t, reasons["not an identifier"])
	assert.True(t, reasons["neither list nor mapping"])
}

func TestNodeWalk(t *testing.T) {
	root := NewBranch(map[string]*Node{
		"B": NewLeaf(identifier.MustParse(ti)),
		"A": NewBranch(map[string]*Node{
			"x": NewLeaf(identifier.MustParse(nordicDFU), identifier.MustParse(ti)),
		}),
	})

	var paths []string
	root.Walk(func(path []string, ids []identifier.Identifier) {
		paths = append(paths, strings.Join(path, "/"))
	})

	assert.Equal(t, []string{"A/x", "B"}, paths)
	assert.Len(t, root.All(), 2)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	files := Files{
		StandardList: writeFile(t, dir, "adopted.csv", "X,Y,2A05,Service Changed\nmalformed\n"),
		MemberList:   writeFile(t, dir, "members.txt", "FEAA\n"),
		KnownTable:   writeFile(t, dir, "kfus.json", `{"DFU": {"Nordic": ["`+nordicDFU+`"]}}`),
	}

	reg, err := Load(files, slogutil.NewDiscardLogger())
	require.NoError(t, err)

	service, ok := reg.Service("2A05")
	assert.True(t, ok)
	assert.Equal(t, "Service Changed", service)
	assert.True(t, reg.IsMember("FEAA"))
	assert.True(t, reg.Known().Contains(identifier.MustParse(nordicDFU)))
}

func TestLoad_TOMLKnownTable(t *testing.T) {
	dir := t.TempDir()
	content := "Fitness = [\"" + heartRate + "\"]\n\n[DFU]\nNordic = [\"" + nordicDFU + "\"]\n"
	path := writeFile(t, dir, "kfus.toml", content)

	table, err := LoadKnownTable(path, slogutil.NewDiscardLogger())
	require.NoError(t, err)

	assert.True(t, table.Contains(identifier.MustParse(heartRate)))
	assert.True(t, table.Contains(identifier.MustParse(nordicDFU)))
	dfu, ok := table.Category("DFU")
	require.True(t, ok)
	assert.Equal(t, []string{"Nordic"}, dfu.Names())
}

func TestLoad_MissingFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	files := Files{
		StandardList: writeFile(t, dir, "adopted.csv", "X,Y,2A05,Service Changed\n"),
		MemberList:   filepath.Join(dir, "absent.txt"),
		KnownTable:   writeFile(t, dir, "kfus.json", `{}`),
	}

	_, err := Load(files, slogutil.NewDiscardLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ReferenceMissing))
}

func TestLoad_UndecodableKnownTable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kfus.json", `["not", "a", "mapping"]`)

	_, err := LoadKnownTable(path, slogutil.NewDiscardLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ReferenceInvalid))
}

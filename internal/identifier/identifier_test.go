package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Canonicalises(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Identifier
	}{
		{"lower case", "00002a05-0000-1000-8000-00805f9b34fb", "00002A05-0000-1000-8000-00805F9B34FB"},
		{"surrounding space", "  6e400001-b5a3-f393-e0a9-e50e24dcca9e\n", "6E400001-B5A3-F393-E0A9-E50E24DCCA9E"},
		{"braced", "{00002a05-0000-1000-8000-00805f9b34fb}", "00002A05-0000-1000-8000-00805F9B34FB"},
		{"bare hex", "00002a0500001000800000805f9b34fb", "00002A05-0000-1000-8000-00805F9B34FB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{"", "2A05", "not-an-identifier", "00002a05-0000-1000-8000-00805f9b34fz"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestFromShort(t *testing.T) {
	id, err := FromShort("0x2a05")
	require.NoError(t, err)
	assert.Equal(t, Identifier("00002A05-0000-1000-8000-00805F9B34FB"), id)

	_, err = FromShort("2A0")
	assert.Error(t, err)
}

func TestReservedShapeAndShort(t *testing.T) {
	std := MustParse("00002A05-0000-1000-8000-00805F9B34FB")
	assert.True(t, std.HasReservedShape())
	assert.Equal(t, "2A05", std.Short())

	vendor := MustParse("6E400001-B5A3-F393-E0A9-E50E24DCCA9E")
	assert.False(t, vendor.HasReservedShape())

	wrongPrefix := MustParse("12342A05-0000-1000-8000-00805F9B34FB")
	assert.False(t, wrongPrefix.HasReservedShape())
}

func TestNone(t *testing.T) {
	id := MustParse("00000000-0000-1000-8000-00805f9b34fb")
	assert.True(t, id.IsNone())
	assert.False(t, MustParse("00002A05-0000-1000-8000-00805F9B34FB").IsNone())
}

func TestIsDescriptor(t *testing.T) {
	for _, short := range []string{"2900", "2902", "290A", "290E"} {
		id, err := FromShort(short)
		require.NoError(t, err)
		assert.True(t, IsDescriptor(id), short)
	}
	for _, short := range []string{"290F", "2A05", "1800"} {
		id, err := FromShort(short)
		require.NoError(t, err)
		assert.False(t, IsDescriptor(id), short)
	}
}

func TestNormalizeShort(t *testing.T) {
	assert.Equal(t, "2A05", NormalizeShort(" 0x2a05 "))
	assert.Equal(t, "FEAA", NormalizeShort("feaa"))
}

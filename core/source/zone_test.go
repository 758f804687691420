package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseZone(t *testing.T) {
	tests := []struct {
		in      string
		want    Zone
		wantErr bool
	}{
		{in: "0:5", want: Zone{0, 5}},
		{in: " 6 : 25 ", want: Zone{6, 25}},
		{in: "5184", want: Zone{5184, 5184}},
		{in: "", wantErr: true},
		{in: "a:b", wantErr: true},
		{in: "5:1", wantErr: true},
		{in: "-1:2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseZone(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", ColumnLetter(0))
	assert.Equal(t, "G", ColumnLetter(6))
	assert.Equal(t, "Z", ColumnLetter(25))
	assert.Equal(t, "AA", ColumnLetter(26))
	assert.Equal(t, "AZ", ColumnLetter(51))
	assert.Equal(t, "BA", ColumnLetter(52))
	assert.Equal(t, "", ColumnLetter(-1))
}

func TestZone_Overlaps(t *testing.T) {
	assert.True(t, Zone{0, 5}.Overlaps(Zone{5, 9}))
	assert.False(t, Zone{0, 5}.Overlaps(Zone{6, 25}))
	assert.True(t, Zone{3, 3}.Contains(3))
}

func TestConfig_Options(t *testing.T) {
	opts, err := Config{FrozenZone: "0:3", DataZone: "4"}.Options()
	require.NoError(t, err)
	assert.Equal(t, Zone{Start: 0, End: 3}, opts.FrozenZone)
	assert.Equal(t, Zone{Start: 4, End: 4}, opts.DataZone)

	_, err = Config{FrozenZone: "x", DataZone: "4"}.Options()
	assert.ErrorContains(t, err, "frozen zone")

	_, err = Config{FrozenZone: "0:1", DataZone: "5:2"}.Options()
	assert.ErrorContains(t, err, "data zone")
}

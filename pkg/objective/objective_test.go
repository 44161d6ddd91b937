package objective

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Objective
	}{
		{"CPM", CPM{Resolution: 0.5}},
		{"modularity", Modularity{}},
		{"RB_Configuration", RBConfiguration{Resolution: 0.5}},
		{"rbconfiguration", RBConfiguration{Resolution: 0.5}},
		{"RBER", RBER{Resolution: 0.5}},
		{"Significance", Significance{}},
		{" surprise ", Surprise{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.name, 0.5)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("infomap", 1)

	var invalid *InvalidObjectiveError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "infomap", invalid.Name)
	assert.Error(t, Validate(nil))
}

func TestFromKeyword(t *testing.T) {
	assert.Equal(t, Modularity{}, FromKeyword("MODULARITY", 3))
	assert.Equal(t, CPM{Resolution: 3}, FromKeyword("cpm", 3))
	assert.Equal(t, CPM{Resolution: 3}, FromKeyword("whatever", 3))
}

func TestResolution(t *testing.T) {
	r, ok := Resolution(CPM{Resolution: 0.1})
	assert.True(t, ok)
	assert.Equal(t, 0.1, r)

	_, ok = Resolution(Modularity{})
	assert.False(t, ok)
	_, ok = Resolution(Surprise{})
	assert.False(t, ok)
}

func TestNamesRoundTrip(t *testing.T) {
	for _, name := range Names {
		o, err := Parse(name, 1)
		require.NoError(t, err)
		assert.Equal(t, name, o.Name())
	}
}

package beamline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrefix(t *testing.T) {
	tests := []struct {
		id, suffix    string
		wantBeamline  string
		wantInsertion string
	}{
		{"i22", "", "BL22I", "SR22I"},
		{"i22", "J", "BL22J", "SR22J"},
		{"i04-1", "", "BL04I", "SR04I"},
		{"s03", "", "BL03S", "SR03S"},
		{"b21", "", "BL21B", "SR21B"},
	}
	for _, tt := range tests {
		t.Run(tt.id+tt.suffix, func(t *testing.T) {
			p, err := NewPrefix(tt.id, tt.suffix)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBeamline, p.Beamline)
			assert.Equal(t, tt.wantInsertion, p.Insertion)
		})
	}
}

func TestNewPrefixRejectsMalformedIDs(t *testing.T) {
	for _, id := range []string{"", "i2", "I22", "i22x", "adsim", "i22-"} {
		_, err := NewPrefix(id, "")
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
}

func TestContextSetIsIdempotent(t *testing.T) {
	t.Setenv(EnvVar, "")
	c := New()

	require.NoError(t, c.Set("i22", ""))
	gen := c.Generation()
	first := c.BeamlinePrefix()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set("i22", ""))
	}
	assert.Equal(t, first, c.BeamlinePrefix())
	assert.Equal(t, gen, c.Generation())
	assert.Equal(t, "BL22I", c.BeamlinePrefix())
	assert.Equal(t, "SR22I", c.InsertionPrefix())
}

func TestContextGenerationChangesWithIdentity(t *testing.T) {
	t.Setenv(EnvVar, "")
	c := New()
	assert.False(t, c.IsSet())
	_, err := c.Prefix()
	assert.ErrorIs(t, err, ErrNotSet)

	require.NoError(t, c.Set("i22", ""))
	g1 := c.Generation()
	require.NoError(t, c.Set("i03", ""))
	assert.Greater(t, c.Generation(), g1)
	assert.Equal(t, "i03", c.ID())

	g2 := c.Generation()
	require.NoError(t, c.Set("i03", "X"))
	assert.Greater(t, c.Generation(), g2, "suffix change is an identity change")
}

func TestContextEnvironmentOverride(t *testing.T) {
	t.Setenv(EnvVar, "i03")
	c := New()

	require.NoError(t, c.Set("s03", ""))
	assert.Equal(t, "i03", c.ID())
	assert.Equal(t, "BL03I", c.BeamlinePrefix())
}

func TestContextSetInvalidKeepsPrevious(t *testing.T) {
	t.Setenv(EnvVar, "")
	c := New()
	require.NoError(t, c.Set("i22", ""))

	assert.ErrorIs(t, c.Set("nope", ""), ErrInvalidID)
	assert.Equal(t, "i22", c.ID())
}

func TestNameAndSimulatorID(t *testing.T) {
	t.Setenv(EnvVar, "")
	assert.Equal(t, "s03", Name("s03"))
	t.Setenv(EnvVar, "i03")
	assert.Equal(t, "i03", Name("s03"))

	assert.Equal(t, "s03", SimulatorID("i03"))
	assert.Equal(t, "s03", SimulatorID("s03"))
	assert.Equal(t, "adsim", SimulatorID("adsim"))
	assert.True(t, IsSimulator("s22"))
	assert.False(t, IsSimulator("i22"))
}

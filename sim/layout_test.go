package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridLayoutExactCountInBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AgentCount = 1000
	rng := rand.New(rand.NewSource(1))

	agents := placeAgents(&cfg, rng)
	require.Len(t, agents, cfg.AgentCount)

	for i, a := range agents {
		assert.Equal(t, Healthy, a.State, "agent %d", i)
		assert.Greater(t, a.Radius, 0.0, "agent %d", i)
		assert.GreaterOrEqual(t, a.X, 0.0, "agent %d", i)
		assert.LessOrEqual(t, a.X, cfg.WorldWidth, "agent %d", i)
		assert.GreaterOrEqual(t, a.Y, 0.0, "agent %d", i)
		assert.LessOrEqual(t, a.Y, cfg.WorldHeight, "agent %d", i)
	}
}

func TestScatterLayoutExactCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AgentCount = 40
	rng := rand.New(rand.NewSource(2))

	agents := placeAgents(&cfg, rng)
	require.Len(t, agents, cfg.AgentCount)
	for _, a := range agents {
		assert.Equal(t, Healthy, a.State)
	}
}

// Density too high for the requested spacing: the retry budget runs out
// and spacing is relaxed, but the returned count never falls short.
func TestScatterLayoutImpossibleSpacingStillExact(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AgentCount = 50
	cfg.WorldWidth = 40
	cfg.WorldHeight = 30
	cfg.MinAgentSpacing = 100 // cannot fit two agents this far apart
	rng := rand.New(rand.NewSource(3))

	agents := placeAgents(&cfg, rng)
	require.Len(t, agents, cfg.AgentCount)
}

func TestLayoutMethodSelection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridLayoutThreshold = 64

	cfg.AgentCount = 64
	grid := placeAgents(&cfg, rand.New(rand.NewSource(4)))
	require.Len(t, grid, 64)
	// The grid derives one shared radius from the cell size.
	for _, a := range grid {
		assert.Equal(t, grid[0].Radius, a.Radius)
	}

	cfg.AgentCount = 10
	scatter := placeAgents(&cfg, rand.New(rand.NewSource(4)))
	require.Len(t, scatter, 10)
}

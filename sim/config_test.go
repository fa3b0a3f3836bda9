package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	table := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick", func(c *Config) { c.TickPeriod = 0 }},
		{"negative tick", func(c *Config) { c.TickPeriod = -time.Second }},
		{"zero width", func(c *Config) { c.WorldWidth = 0 }},
		{"negative height", func(c *Config) { c.WorldHeight = -10 }},
		{"zero agents", func(c *Config) { c.AgentCount = 0 }},
		{"negative particles", func(c *Config) { c.InitialParticles = -1 }},
		{"negative infection period", func(c *Config) { c.InfectionPeriod = -time.Second }},
		{"zero load divisor", func(c *Config) { c.InfectionLoadDivisor = 0 }},
		{"negative dwell", func(c *Config) { c.DeathMinDwell = -time.Second }},
		{"death chance above one", func(c *Config) { c.DeathChance = 1.5 }},
		{"negative death chance", func(c *Config) { c.DeathChance = -0.1 }},
		{"negative burst", func(c *Config) { c.BurstQuantity = -1 }},
		{"negative boost", func(c *Config) { c.BoostQuantity = -5 }},
		{"zero max speed", func(c *Config) { c.MaxParticleSpeed = 0 }},
		{"negative jitter", func(c *Config) { c.ParticleJitter = -1 }},
		{"negative spacing", func(c *Config) { c.MinAgentSpacing = -1 }},
	}

	for _, test := range table {
		cfg := DefaultConfig()
		test.mutate(&cfg)
		assert.Error(t, cfg.Validate(), test.name)
	}
}

func TestNewWorldRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AgentCount = -3
	_, err := NewWorld(cfg)
	require.Error(t, err)
}

package sim

import (
	"math"
	"math/rand"
)

// placementRetries bounds the rejection-sampling budget per agent. When
// the budget runs out the last candidate is accepted anyway: density that
// is too high for the requested spacing relaxes the spacing, never the
// count.
const placementRetries = 30

// placeAgents produces exactly count Healthy agents inside the world
// bounds. Large populations go on a jittered grid whose column count
// approximates the world aspect ratio; small populations are placed by
// rejection sampling against a minimum pairwise distance.
func placeAgents(cfg *Config, rng *rand.Rand) []Agent {
	if cfg.AgentCount >= cfg.GridLayoutThreshold {
		return gridLayout(cfg, rng)
	}
	return scatterLayout(cfg, rng)
}

// gridLayout places one agent per cell of a cols x rows grid plus bounded
// random jitter. Exact by construction: the first count cells are used.
func gridLayout(cfg *Config, rng *rand.Rand) []Agent {
	count := cfg.AgentCount
	cols := int(math.Round(math.Sqrt(float64(count) * cfg.WorldWidth / cfg.WorldHeight)))
	if cols < 1 {
		cols = 1
	}
	rows := (count + cols - 1) / cols

	cellW := cfg.WorldWidth / float64(cols)
	cellH := cfg.WorldHeight / float64(rows)
	radius := 0.35 * math.Min(cellW, cellH)
	jitterX := cellW * 0.2
	jitterY := cellH * 0.2

	agents := make([]Agent, 0, count)
	for i := 0; i < count; i++ {
		col := i % cols
		row := i / cols
		agents = append(agents, Agent{
			X:      (float64(col)+0.5)*cellW + (rng.Float64()*2-1)*jitterX,
			Y:      (float64(row)+0.5)*cellH + (rng.Float64()*2-1)*jitterY,
			Radius: radius,
			State:  Healthy,
		})
	}
	return agents
}

// scatterLayout rejection-samples random positions, keeping each new agent
// at least MinAgentSpacing away from every earlier one while the retry
// budget lasts.
func scatterLayout(cfg *Config, rng *rand.Rand) []Agent {
	count := cfg.AgentCount
	spacing := cfg.MinAgentSpacing
	radius := spacing * 0.45
	if radius <= 0 {
		radius = 4
	}

	agents := make([]Agent, 0, count)
	for i := 0; i < count; i++ {
		var x, y float64
		for try := 0; try < placementRetries; try++ {
			x = rng.Float64() * cfg.WorldWidth
			y = rng.Float64() * cfg.WorldHeight
			if spacing <= 0 || clearOf(agents, x, y, spacing) {
				break
			}
		}
		agents = append(agents, Agent{X: x, Y: y, Radius: radius, State: Healthy})
	}
	return agents
}

func clearOf(agents []Agent, x, y, spacing float64) bool {
	for i := range agents {
		dx := agents[i].X - x
		dy := agents[i].Y - y
		if dx*dx+dy*dy < spacing*spacing {
			return false
		}
	}
	return true
}

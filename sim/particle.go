package sim

import (
	"math"
	"math/rand"
)

// ParticleKind distinguishes particle species. Virions drive the infection
// rule; pathogen particles are the transient species added by the
// introduce-pathogen intervention and carry no infection pressure.
type ParticleKind uint8

const (
	Virion ParticleKind = iota
	Pathogen
)

// String returns the lower-case kind name used in snapshots.
func (k ParticleKind) String() string {
	if k == Pathogen {
		return "pathogen"
	}
	return "virion"
}

// Particle is a free-floating virus unit. Particles carry no identity
// beyond position and velocity; within a kind they are fungible.
type Particle struct {
	X, Y   float64
	VX, VY float64
	Kind   ParticleKind
}

// Field advances free particles inside fixed rectangular bounds: a small
// symmetric velocity perturbation, a speed clamp, position integration,
// and a sign-flip reflection off each violated wall with the position
// clamped to the boundary inset. Setting Jitter to zero disables the
// perturbation, which makes a motion step fully deterministic regardless
// of the random source.
type Field struct {
	Width, Height float64
	Inset         float64
	Jitter        float64
	MaxSpeed      float64
}

// Advance moves every particle in ps by one tick, in place.
func (f *Field) Advance(ps []Particle, rng *rand.Rand) {
	for i := range ps {
		p := &ps[i]

		if f.Jitter > 0 {
			p.VX += (rng.Float64()*2 - 1) * f.Jitter
			p.VY += (rng.Float64()*2 - 1) * f.Jitter
		}

		if speed := math.Hypot(p.VX, p.VY); speed > f.MaxSpeed && speed > 0 {
			scale := f.MaxSpeed / speed
			p.VX *= scale
			p.VY *= scale
		}

		p.X += p.VX
		p.Y += p.VY

		if p.X < f.Inset {
			p.X = f.Inset
			p.VX = -p.VX
		} else if p.X > f.Width-f.Inset {
			p.X = f.Width - f.Inset
			p.VX = -p.VX
		}
		if p.Y < f.Inset {
			p.Y = f.Inset
			p.VY = -p.VY
		} else if p.Y > f.Height-f.Inset {
			p.Y = f.Height - f.Inset
			p.VY = -p.VY
		}
	}
}

// randomVelocity draws a velocity with uniform direction and a magnitude
// up to half the field's speed clamp, so fresh spawns drift rather than
// streak.
func (f *Field) randomVelocity(rng *rand.Rand) (vx, vy float64) {
	angle := rng.Float64() * 2 * math.Pi
	speed := rng.Float64() * f.MaxSpeed / 2
	return math.Cos(angle) * speed, math.Sin(angle) * speed
}

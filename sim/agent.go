package sim

import "time"

// AgentState is the lifecycle state of a simulated cell.
type AgentState uint8

const (
	// Healthy cells are uninfected and eligible for infection.
	Healthy AgentState = iota
	// Active cells carry replicating virus: they shed, age, and may die.
	Active
	// Latent cells carry suppressed virus. They never die in this model;
	// they wait for therapy to lapse or for a pathogen to reactivate them.
	Latent
	// Dead is terminal.
	Dead
)

// String returns the lower-case state name used in snapshots and logs.
func (s AgentState) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Active:
		return "active"
	case Latent:
		return "latent"
	case Dead:
		return "dead"
	}
	return "unknown"
}

// Agent is a simulated cell. Agents are created once at population
// initialization and never added or removed afterwards; only State and the
// two timers change. Position and radius are fixed at layout time and exist
// for rendering.
type Agent struct {
	X, Y   float64
	Radius float64
	State  AgentState

	// Age is time spent in the Active state since the last infection or
	// reactivation. It resets on every transition into Active and on the
	// Active->Latent therapy edge.
	Age time.Duration

	// Shed is the trickle-emission accumulator. It persists across the
	// Active<->Latent transitions so each agent's trickle cadence keeps
	// its phase through a therapy toggle.
	Shed time.Duration
}

// Infected reports whether the agent carries virus in any form.
func (a *Agent) Infected() bool {
	return a.State == Active || a.State == Latent
}

// infect moves a Healthy agent to Active. Any other starting state is
// left untouched.
func (a *Agent) infect() {
	if a.State != Healthy {
		return
	}
	a.State = Active
	a.Age = 0
	a.Shed = 0
}

// suppress moves an Active agent to Latent on the therapy-on edge.
func (a *Agent) suppress() {
	if a.State != Active {
		return
	}
	a.State = Latent
	a.Age = 0
}

// reactivate moves a Latent agent back to Active.
func (a *Agent) reactivate() {
	if a.State != Latent {
		return
	}
	a.State = Active
	a.Age = 0
}

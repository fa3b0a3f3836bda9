package main

import (
	"encoding/json"
	"log"
	"time"

	"reservoir/sim"
)

// AppState owns the simulation world and the run loop around it. The loop
// is the world's single owner: one goroutine receives the tick timer and
// every UI command, so interventions always apply atomically between
// ticks and never interleave with a tick in progress.
type AppState struct {
	world *sim.World
	cfg   sim.Config

	// Control state. A single running flag gates the tick handler; pause
	// additionally stops the timer so no backlog of ticks can queue up.
	running bool

	history   *History
	recorder  *Recorder
	chartPath string
	videoPath string
}

// NewAppState builds the world from cfg and prepares the run loop in the
// paused state.
func NewAppState(cfg sim.Config, chartPath, videoPath string) (*AppState, error) {
	world, err := sim.NewWorld(cfg)
	if err != nil {
		return nil, err
	}
	return &AppState{
		world:     world,
		cfg:       cfg,
		history:   NewHistory(),
		chartPath: chartPath,
		videoPath: videoPath,
	}, nil
}

// frameMessage wraps a world snapshot for the UI.
type frameMessage struct {
	Type string `json:"type"`
	sim.Snapshot
}

// statsMessage is the once-per-second census update for the UI.
type statsMessage struct {
	Type      string     `json:"type"`
	Elapsed   float64    `json:"elapsed"`
	Therapy   bool       `json:"therapy"`
	Running   bool       `json:"running"`
	Recording bool       `json:"recording"`
	Counts    sim.Counts `json:"counts"`
}

// Run is the main simulation control loop. It blocks forever, advancing
// the world on the fixed tick and applying intervention commands from the
// hub in between.
func (s *AppState) Run(hub *Hub) {
	ticker := time.NewTicker(s.cfg.TickPeriod)
	defer ticker.Stop()
	ticker.Stop() // start paused; the UI sends set_running to begin

	// One logical second, derived from the same accumulator the engine
	// uses, drives the stats broadcast and the history samples.
	stats := sim.Cadence{Period: time.Second}

	for {
		select {
		case <-ticker.C:
			if !s.running {
				continue
			}
			s.world.Tick()
			if stats.Advance(s.cfg.TickPeriod) > 0 {
				s.history.Record(s.world.Elapsed(), s.world.Counts())
				s.broadcastStats(hub)
			}
			s.broadcastFrame(hub)
			s.captureFrame()

		case on := <-hub.SetRunning:
			s.setRunning(on, ticker)
			s.broadcastStats(hub)

		case <-hub.ToggleTherapy:
			on := s.world.ToggleTherapy()
			log.Printf("therapy toggled %s", onOff(on))
			s.broadcastFrame(hub)
			s.broadcastStats(hub)

		case <-hub.FlushParticles:
			s.world.Flush()
			log.Println("flushed all free particles")
			s.broadcastFrame(hub)

		case n := <-hub.BoostParticles:
			s.world.Boost(n)
			s.broadcastFrame(hub)

		case <-hub.IntroducePathogen:
			s.world.IntroducePathogen()
			log.Println("pathogen introduced")
			s.broadcastFrame(hub)
			s.broadcastStats(hub)

		case <-hub.ResetWorld:
			s.reset(ticker)
			s.broadcastFrame(hub)
			s.broadcastStats(hub)

		case <-hub.ExportChart:
			if err := s.history.ExportPNG(s.chartPath); err != nil {
				log.Printf("chart export failed: %v", err)
			} else {
				log.Printf("chart exported to %s", s.chartPath)
			}

		case on := <-hub.SetRecording:
			s.setRecording(on)
		}
	}
}

// setRunning starts or stops the tick timer. Stopping the timer (rather
// than only flagging) guarantees no queued tick fires while paused.
func (s *AppState) setRunning(on bool, ticker *time.Ticker) {
	if on == s.running {
		return
	}
	s.running = on
	if on {
		log.Println("simulation running")
		ticker.Reset(s.cfg.TickPeriod)
		return
	}
	log.Println("simulation paused")
	ticker.Stop()
}

// reset reinitializes the world synchronously and leaves the loop paused,
// matching the documented initial state.
func (s *AppState) reset(ticker *time.Ticker) {
	s.world.Reset()
	s.history.Clear()
	s.setRunning(false, ticker)
	log.Println("simulation reset to initial configuration")
}

func (s *AppState) setRecording(on bool) {
	if on == (s.recorder != nil) {
		return
	}
	if !on {
		if err := s.recorder.Close(); err != nil {
			log.Printf("error closing recording: %v", err)
		} else {
			log.Printf("recording saved to %s", s.videoPath)
		}
		s.recorder = nil
		return
	}

	fps := int32(time.Second / s.cfg.TickPeriod)
	if fps < 1 {
		fps = 1
	}
	rec, err := NewRecorder(s.videoPath, int(s.cfg.WorldWidth), int(s.cfg.WorldHeight), fps)
	if err != nil {
		log.Printf("could not start recording: %v", err)
		return
	}
	s.recorder = rec
	log.Printf("recording to %s", s.videoPath)
}

func (s *AppState) captureFrame() {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.AddFrame(s.world.Snapshot()); err != nil {
		log.Printf("recording frame failed, stopping: %v", err)
		s.recorder.Close()
		s.recorder = nil
	}
}

func (s *AppState) broadcastFrame(hub *Hub) {
	msg := frameMessage{Type: "frame", Snapshot: s.world.Snapshot()}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshalling frame: %v", err)
		return
	}
	hub.Broadcast <- data
}

func (s *AppState) broadcastStats(hub *Hub) {
	msg := statsMessage{
		Type:      "stats",
		Elapsed:   s.world.Elapsed().Seconds(),
		Therapy:   s.world.Therapy(),
		Running:   s.running,
		Recording: s.recorder != nil,
		Counts:    s.world.Counts(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshalling stats: %v", err)
		return
	}
	hub.Broadcast <- data
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

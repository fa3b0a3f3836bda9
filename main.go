package main

import (
	"flag"
	"fmt"
	"log"

	"reservoir/sim"
)

func main() {
	fmt.Println("--- Reservoir: an HIV latency teaching simulation ---")

	// --- Command-line flags ---
	configPath := flag.String("config", "", "Optional INI file overriding the default parameters.")
	addr := flag.String("addr", ":8080", "HTTP listen address for the UI.")
	chartPath := flag.String("chart", "counts.png", "Output path for the exported count chart.")
	videoPath := flag.String("video", "session.avi", "Output path for the session recording.")
	seed := flag.Int64("seed", 0, "Random seed; 0 picks a time-based seed.")
	flag.Parse()

	// --- Configuration ---
	cfg := sim.DefaultConfig()
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		fmt.Printf("Loaded config: %s\n", *configPath)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	// --- Simulation state ---
	app, err := NewAppState(cfg, *chartPath, *videoPath)
	if err != nil {
		log.Fatalf("Failed to initialize simulation: %v", err)
	}
	fmt.Printf(
		"Simulation ready: %d cells, %d initial particles, tick %v\n",
		cfg.AgentCount, cfg.InitialParticles, cfg.TickPeriod,
	)

	// --- WebSocket hub and web server ---
	hub := NewHub()
	go hub.Run()
	go StartServer(hub, *addr)

	// --- Main simulation control loop ---
	app.Run(hub)
}

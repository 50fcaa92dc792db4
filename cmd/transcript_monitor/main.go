package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/swarm_terminal/internal/app"
	"github.com/relabs-tech/swarm_terminal/internal/config"
)

func main() {
	configPath := flag.String("config", "swarm_terminal.txt", "Path to configuration file")
	flag.Parse()

	log.Println("starting swarm transcript monitor (MQTT → console)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunTranscriptMonitor(config.Get(), os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"renderscope/internal/agent"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config file")
	flag.Parse()

	ag, err := agent.Start(*configPath)
	if err != nil {
		log.Fatalf("failed to start agent: %v", err)
	}
	log.Printf("Agent started at %s. Press Ctrl+C to stop.", ag.Addr())

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Printf("Stopping agent...")
	if err := ag.Close(); err != nil {
		log.Fatalf("error shutting down agent: %v", err)
	}
	log.Printf("Agent stopped.")
}

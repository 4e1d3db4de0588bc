package main

import (
	"flag"
	"log"

	"renderscope/internal/app"
	"renderscope/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config file")
	addr := flag.String("addr", "", "Agent address (overrides config)")
	flag.Parse()

	controller := app.New(app.Options{ConfigPath: *configPath, Addr: *addr})
	if err := tui.Run(controller); err != nil {
		log.Fatalf("tui exited with error: %v", err)
	}
}

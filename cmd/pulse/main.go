package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/drake/pulse/config"
	"github.com/drake/pulse/debug"
	"github.com/drake/pulse/session"
	"github.com/drake/pulse/ui"
)

func main() {
	// Parse flags
	simpleUI := flag.Bool("simple", false, "Use plain console output instead of the monitor TUI")
	rate := flag.Duration("rate", config.TickRate(), "Scheduler update interval")
	flag.Parse()

	// Select UI mode
	var u ui.UI
	if *simpleUI {
		u = ui.NewConsoleUI()
	} else {
		u = ui.NewMonitorUI()
	}

	// Scripts from the command line, falling back to init.lua
	scripts := flag.Args()
	if len(scripts) == 0 {
		if _, err := os.Stat(config.InitFile()); err == nil {
			scripts = []string{config.InitFile()}
		}
	}

	s := session.New(u, session.Config{
		TickRate: *rate,
		Scripts:  scripts,
	})

	debug.NewMonitor(context.Background(), s).Start()

	if err := s.Run(); err != nil {
		fmt.Println("UI error:", err)
		os.Exit(1)
	}
}

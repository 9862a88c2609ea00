// askd is the voice assistant daemon.
//
//	askd run            Run the daemon in the foreground
//	askd status         Show the running daemon's status
//	askd ask <q>        Ask a typed question via the running daemon
//	askd notes          List recent notes
//	askd sessions new   Start a fresh session transcript
//	askd config init    Write a default config file
//	askd config show    Print the effective configuration
//	askd version        Print the version
package main

import (
	"fmt"
	"os"

	"askd/internal/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "run":
		cmdRun(os.Args[2:])
	case "status":
		cmdStatus(os.Args[2:])
	case "ask":
		cmdAsk(os.Args[2:])
	case "notes":
		cmdNotes(os.Args[2:])
	case "sessions":
		cmdSessions(os.Args[2:])
	case "config":
		cmdConfig(os.Args[2:])
	case "version":
		fmt.Printf("askd %s\n", Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`askd - hold-to-talk screen assistant daemon

USAGE:
    askd <command> [options]

COMMANDS:
    run             Run the daemon in the foreground
    status          Show the running daemon's status
    ask <question>  Ask a typed question via the running daemon
    notes           List recent notes
    sessions new    Start a fresh session transcript
    config init     Write a default config file
    config show     Print the effective configuration
    version         Print the version
    help            Show this help message

BASIC WORKFLOW:
    1. askd config init                 # One-time setup
    2. export ASKD_GEMINI_API_KEY=...   # Provide a model API key
    3. askd run                         # Start the daemon
    4. Hold the chord (default ctrl+alt+a), speak, release.

The daemon screenshots the display when the chord goes down, records
your voice while it is held, and on release transcribes the question,
asks the configured model about the capture, speaks the answer, and
carries out any clipboard, note, or macro actions the model proposed.

Use askctl to talk to a running daemon.`)
}

func cmdConfig(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: askd config <init|show>")
		os.Exit(1)
	}

	switch args[0] {
	case "init":
		path := config.ConfigPath()
		if len(args) >= 2 {
			path = args[1]
		}
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "Config already exists: %s\n", path)
			os.Exit(1)
		}
		if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default config to %s\n", path)
		fmt.Println("Set ASKD_GEMINI_API_KEY or ASKD_OPENAI_API_KEY before running.")
	case "show":
		path := config.ConfigPath()
		if len(args) >= 2 {
			path = args[1]
		}
		cfg, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		if err := config.SaveConfigTo(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding config: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", args[0])
		os.Exit(1)
	}
}

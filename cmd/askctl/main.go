// askctl is the control CLI for a running askd daemon.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"askd/internal/config"
	"askd/internal/ipc"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	configPath = flag.String("config", "", "path to config file")
	socketPath = flag.String("socket", "", "daemon socket path (overrides config)")
	timeout    = flag.Duration("timeout", 10*time.Second, "per-request timeout")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)

	switch cmd {
	case "status":
		cmdStatus()
	case "ask":
		cmdAsk(flag.Args()[1:])
	case "auto-exec":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: askctl auto-exec <on|off>")
			os.Exit(1)
		}
		cmdAutoExec(flag.Arg(1))
	case "new-session":
		cmdNewSession()
	case "notes":
		cmdNotes(flag.Args()[1:])
	case "ping":
		cmdPing()
	case "shutdown":
		cmdShutdown()
	case "version":
		fmt.Printf("askctl %s\n", Version)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `askctl - Control utility for askd

Usage: askctl [options] <command> [args]

Commands:
  status               Show daemon status
  ask [-capture] <q>   Ask a typed question, optionally with a screenshot
  auto-exec <on|off>   Toggle macro auto-execution
  new-session          Start a fresh session transcript
  notes [-n N]         List recent notes
  ping                 Check the daemon is responding
  shutdown             Ask the daemon to exit
  help                 Show this help message

Options:
  -config <path>   Path to config file
  -socket <path>   Daemon socket path (overrides config)
  -timeout <dur>   Per-request timeout (default 10s)`)
}

// connect dials the daemon socket, resolving the path from flags and
// config.
func connect() *ipc.Client {
	path := *socketPath
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		path = cfg.IPC.SocketPath
	}

	client, err := ipc.Dial(path, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot connect to daemon: %v\n", err)
		fmt.Fprintln(os.Stderr, "  Is askd running? Start it with: askd run")
		os.Exit(1)
	}
	return client
}

func cmdPing() {
	client := connect()
	defer client.Close()

	start := time.Now()
	if err := client.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "Ping failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Daemon responding (%s)\n", time.Since(start).Round(time.Millisecond))
}

func cmdStatus() {
	client := connect()
	defer client.Close()

	st, err := client.Status()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get status: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== askd Status ===")
	fmt.Println()
	fmt.Printf("Version:       %s\n", st.Version)
	fmt.Printf("Started:       %s\n", st.StartedAt.Format(time.RFC3339))
	fmt.Printf("Uptime:        %s\n", st.Uptime.Round(time.Second))
	fmt.Printf("Chord:         %s\n", st.Chord)
	fmt.Printf("Listening:     %v\n", st.Listening)
	fmt.Printf("Auto execute:  %v\n", st.AutoExecute)
	fmt.Printf("Provider:      %s\n", st.Provider)
	fmt.Printf("Session file:  %s\n", st.SessionFile)
	fmt.Printf("Notes stored:  %d\n", st.NoteCount)
}

func cmdAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	withCapture := fs.Bool("capture", false, "attach a fresh screenshot to the question")
	fs.Parse(args)

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: askctl ask [-capture] <question>")
		os.Exit(1)
	}

	client := connect()
	defer client.Close()

	resp, err := client.Ask(ipc.AskRequest{
		Question:    question,
		WithCapture: *withCapture,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if !resp.Success {
		fmt.Fprintf(os.Stderr, "Error: %s\n", resp.Error)
		os.Exit(1)
	}

	fmt.Println(resp.Speech)
	for _, entry := range resp.Actions {
		fmt.Printf("  [%s] %s", entry.Kind, entry.Outcome)
		if entry.Detail != "" {
			fmt.Printf(": %s", entry.Detail)
		}
		fmt.Println()
	}
}

func cmdAutoExec(arg string) {
	enabled, err := strconv.ParseBool(normalizeBool(arg))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Usage: askctl auto-exec <on|off>")
		os.Exit(1)
	}

	client := connect()
	defer client.Close()

	if _, err := client.SetAutoExecute(enabled); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set auto execute: %v\n", err)
		os.Exit(1)
	}
	if enabled {
		fmt.Println("Macro auto-execution enabled. Macros will run without confirmation.")
	} else {
		fmt.Println("Macro auto-execution disabled. Macros require confirmation.")
	}
}

func normalizeBool(s string) string {
	switch strings.ToLower(s) {
	case "on", "yes", "enabled":
		return "true"
	case "off", "no", "disabled":
		return "false"
	}
	return s
}

func cmdNewSession() {
	client := connect()
	defer client.Close()

	resp, err := client.NewSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start session: %v\n", err)
		os.Exit(1)
	}
	if !resp.Success {
		fmt.Fprintf(os.Stderr, "Error: %s\n", resp.Error)
		os.Exit(1)
	}
	fmt.Printf("New session: %s\n", resp.Path)
}

func cmdNotes(args []string) {
	fs := flag.NewFlagSet("notes", flag.ExitOnError)
	limit := fs.Int("n", 10, "number of notes to show")
	fs.Parse(args)

	client := connect()
	defer client.Close()

	list, err := client.ListNotes(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list notes: %v\n", err)
		os.Exit(1)
	}
	if len(list) == 0 {
		fmt.Println("No notes saved.")
		return
	}

	for _, n := range list {
		title := n.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s\n", n.CreatedAt.Format("2006-01-02 15:04"), title)
		for _, line := range strings.Split(strings.TrimSpace(n.Content), "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
}

func cmdShutdown() {
	client := connect()
	defer client.Close()

	if err := client.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Shutdown requested.")
}

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"askd/internal/config"
	"askd/internal/ipc"
)

// Convenience subcommands that talk to a running daemon; askctl is the
// full-featured client.

func dialDaemon(configPath string) *ipc.Client {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	client, err := ipc.Dial(cfg.IPC.SocketPath, 10*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot connect to daemon: %v\n", err)
		fmt.Fprintln(os.Stderr, "  Is askd running? Start it with: askd run")
		os.Exit(1)
	}
	return client
}

func cmdStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	client := dialDaemon(*configPath)
	defer client.Close()

	st, err := client.Status()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get status: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("askd %s, up %s\n", st.Version, st.Uptime.Round(time.Second))
	fmt.Printf("Chord: %s    Provider: %s    Auto execute: %v\n",
		st.Chord, st.Provider, st.AutoExecute)
	fmt.Printf("Session: %s\n", st.SessionFile)
	fmt.Printf("Notes: %d\n", st.NoteCount)
}

func cmdAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	withCapture := fs.Bool("capture", false, "attach a fresh screenshot")
	fs.Parse(args)

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: askd ask [-capture] <question>")
		os.Exit(1)
	}

	client := dialDaemon(*configPath)
	defer client.Close()

	resp, err := client.Ask(ipc.AskRequest{Question: question, WithCapture: *withCapture})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if !resp.Success {
		fmt.Fprintf(os.Stderr, "Error: %s\n", resp.Error)
		os.Exit(1)
	}
	fmt.Println(resp.Speech)
}

func cmdNotes(args []string) {
	fs := flag.NewFlagSet("notes", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	limit := fs.Int("n", 10, "number of notes to show")
	fs.Parse(args)

	client := dialDaemon(*configPath)
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
	}
}

func cmdSessions(args []string) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	if fs.NArg() < 1 || fs.Arg(0) != "new" {
		fmt.Fprintln(os.Stderr, "Usage: askd sessions new")
		os.Exit(1)
	}

	client := dialDaemon(*configPath)
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

//go:build linux

package tracker

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"askd/internal/logging"
)

// evdevSource reads key events from /dev/input on Linux. Unlike a
// keylogger it delivers only key names to the in-process tracker; nothing
// is recorded or transmitted.
type evdevSource struct {
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	events  chan Event
	log     *logging.Logger
}

func newPlatformSource() Source {
	return &evdevSource{
		events: make(chan Event, 64),
		log:    logging.Default().WithComponent("evdev"),
	}
}

// Available checks if we can read input devices.
func (s *evdevSource) Available() (bool, string) {
	devices, err := findKeyboardDevices()
	if err != nil {
		return false, fmt.Sprintf("cannot find keyboard devices: %v", err)
	}
	if len(devices) == 0 {
		return false, "no keyboard devices found"
	}
	for _, dev := range devices {
		f, err := os.OpenFile(dev, os.O_RDONLY, 0)
		if err == nil {
			f.Close()
			return true, fmt.Sprintf("found keyboard device: %s", dev)
		}
	}
	return false, "cannot read keyboard devices (need to be in 'input' group or run as root)"
}

// findKeyboardDevices finds /dev/input devices that are keyboards.
func findKeyboardDevices() ([]string, error) {
	var devices []string

	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var currentHandler string
	isKeyboard := false

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "H: Handlers=") {
			for _, part := range strings.Fields(line) {
				if strings.HasPrefix(part, "event") {
					currentHandler = "/dev/input/" + part
				}
			}
		}

		if strings.HasPrefix(line, "B: KEY=") && len(line) > 10 {
			isKeyboard = true
		}

		if line == "" {
			if isKeyboard && currentHandler != "" {
				devices = append(devices, currentHandler)
			}
			currentHandler = ""
			isKeyboard = false
		}
	}

	matches, _ := filepath.Glob("/dev/input/by-id/*-kbd")
	devices = append(devices, matches...)

	return devices, nil
}

// Start begins reading key events.
func (s *evdevSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	devices, err := findKeyboardDevices()
	if err != nil || len(devices) == 0 {
		return ErrNotAvailable
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.running = true

	go s.readLoop(ctx, devices)
	return nil
}

// inputEvent mirrors the Linux input_event struct.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

const (
	evKey      = 0x01
	valRelease = 0
	valPress   = 1
	valRepeat  = 2
)

func (s *evdevSource) readLoop(ctx context.Context, devices []string) {
	defer close(s.done)
	defer close(s.events)

	var f *os.File
	var err error
	for _, dev := range devices {
		f, err = os.OpenFile(dev, os.O_RDONLY, 0)
		if err == nil {
			break
		}
	}
	if f == nil {
		s.log.Warn("no readable keyboard device", "error", err)
		return
	}
	defer f.Close()

	// Close the device when cancelled so the blocking read returns.
	go func() {
		<-ctx.Done()
		f.Close()
	}()

	eventSize := binary.Size(inputEvent{})
	buf := make([]byte, eventSize)

	for {
		n, err := f.Read(buf)
		if err != nil {
			return // cancelled or device gone
		}
		if n < eventSize {
			continue
		}

		typ := binary.LittleEndian.Uint16(buf[16:18])
		code := binary.LittleEndian.Uint16(buf[18:20])
		value := int32(binary.LittleEndian.Uint32(buf[20:24]))

		if typ != evKey {
			continue
		}
		name, ok := keyCodeNames[code]
		if !ok {
			continue
		}

		var ev Event
		switch value {
		case valPress, valRepeat: // a repeat is just another press
			ev = Event{Key: name, Press: true}
		case valRelease:
			ev = Event{Key: name, Press: false}
		default:
			continue
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops event delivery.
func (s *evdevSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.cancel()
	<-s.done
	s.running = false
	return nil
}

func (s *evdevSource) Events() <-chan Event {
	return s.events
}

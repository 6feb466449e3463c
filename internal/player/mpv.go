// mpv implementation of [Media] over the JSON IPC protocol
package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfplay/internal/shared"
)

const (
	mpvDialTimeout    = 5 * time.Second
	mpvRequestTimeout = 5 * time.Second

	propDuration = 1
	propTimePos  = 2
)

// MPV drives an mpv subprocess through its JSON IPC socket. mpv handles the
// actual decoding and HTTP range requests; this type only translates [Media]
// calls into property writes and IPC events into [MediaEvent]s.
type MPV struct {
	cmd    *exec.Cmd
	conn   net.Conn
	socket string
	logger *log.Logger
	events chan MediaEvent

	mu      sync.Mutex
	pending map[int]chan mpvReply
	nextID  int

	closeOnce sync.Once
	closeErr  error
}

var _ Media = (*MPV)(nil)

type mpvReply struct {
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// mpvMessage is the union of reply and event lines on the IPC socket.
type mpvMessage struct {
	RequestID int             `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
}

// NewMPV spawns mpv in idle mode and connects to its IPC socket. binPath
// defaults to "mpv" on PATH.
func NewMPV(binPath string, logger *log.Logger) (*MPV, error) {
	if binPath == "" {
		binPath = "mpv"
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	socket := filepath.Join(os.TempDir(), fmt.Sprintf("shelfplay-mpv-%s.sock", shared.GenerateID()))

	cmd := exec.Command(binPath,
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server="+socket,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: failed to start mpv: %v", shared.ErrMediaUnavailable, err)
	}

	conn, err := dialWithRetry(socket, mpvDialTimeout)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.Remove(socket)
		return nil, fmt.Errorf("%w: failed to connect to mpv socket: %v", shared.ErrMediaUnavailable, err)
	}

	m := &MPV{
		cmd:     cmd,
		conn:    conn,
		socket:  socket,
		logger:  logger,
		events:  make(chan MediaEvent, 100),
		pending: make(map[int]chan mpvReply),
	}

	go m.readLoop()

	if err := m.command("observe_property", propDuration, "duration"); err != nil {
		m.Close()
		return nil, fmt.Errorf("%w: failed to observe duration: %v", shared.ErrMediaUnavailable, err)
	}
	if err := m.command("observe_property", propTimePos, "time-pos"); err != nil {
		m.Close()
		return nil, fmt.Errorf("%w: failed to observe time-pos: %v", shared.ErrMediaUnavailable, err)
	}

	return m, nil
}

// dialWithRetry polls the socket until mpv creates it.
func dialWithRetry(socket string, timeout time.Duration) (net.Conn, error) {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// readLoop consumes IPC lines until the connection closes, routing replies to
// waiters and translating events. Closes the events channel on exit.
func (m *MPV) readLoop() {
	defer close(m.events)

	lastSecond := -1
	scanner := bufio.NewScanner(m.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var msg mpvMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			m.logger.Debug("unparseable IPC line", "line", scanner.Text())
			continue
		}

		if msg.RequestID != 0 {
			m.mu.Lock()
			ch := m.pending[msg.RequestID]
			delete(m.pending, msg.RequestID)
			m.mu.Unlock()
			if ch != nil {
				ch <- mpvReply{Error: msg.Error, Data: msg.Data}
			}
			continue
		}

		switch msg.Event {
		case "property-change":
			m.onProperty(msg, &lastSecond)
		case "end-file":
			m.onEndFile(msg)
		}
	}
}

func (m *MPV) onProperty(msg mpvMessage, lastSecond *int) {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return
	}

	var value float64
	if err := json.Unmarshal(msg.Data, &value); err != nil {
		return
	}

	switch msg.ID {
	case propDuration:
		m.emit(MediaEvent{Kind: MetadataLoaded, Duration: value})
	case propTimePos:
		// Property changes arrive far faster than the UI needs; forward
		// whole-second ticks only.
		second := int(value)
		if second != *lastSecond {
			*lastSecond = second
			m.emit(MediaEvent{Kind: TimeUpdate, Position: value})
		}
	}
}

func (m *MPV) onEndFile(msg mpvMessage) {
	switch msg.Reason {
	case "eof":
		m.emit(MediaEvent{Kind: Ended})
	case "error":
		m.emit(MediaEvent{Kind: MediaFailed, Code: mapMPVError(msg.FileError)})
	case "quit", "stop":
		// Deliberate teardown, not a playback outcome.
	}
}

// mapMPVError reduces mpv's file_error strings to the fixed error-code table.
func mapMPVError(fileError string) ErrorCode {
	e := strings.ToLower(fileError)
	switch {
	case strings.Contains(e, "format"), strings.Contains(e, "recognized"), strings.Contains(e, "unsupported"):
		return CodeUnsupported
	case strings.Contains(e, "network"), strings.Contains(e, "connect"), strings.Contains(e, "resolve"), strings.Contains(e, "timed out"):
		return CodeNetwork
	case strings.Contains(e, "abort"), strings.Contains(e, "interrupt"):
		return CodeAborted
	default:
		return CodeDecode
	}
}

func (m *MPV) emit(ev MediaEvent) {
	select {
	case m.events <- ev:
	default:
		m.logger.Debug("dropping media event", "kind", ev.Kind)
	}
}

// command sends an IPC command and waits for its reply.
func (m *MPV) command(args ...any) error {
	m.mu.Lock()
	if m.conn == nil {
		m.mu.Unlock()
		return shared.ErrMediaUnavailable
	}
	m.nextID++
	id := m.nextID
	ch := make(chan mpvReply, 1)
	m.pending[id] = ch
	conn := m.conn
	m.mu.Unlock()

	payload, err := json.Marshal(map[string]any{"command": args, "request_id": id})
	if err != nil {
		return fmt.Errorf("failed to encode IPC command: %w", err)
	}

	if _, err := conn.Write(append(payload, '\n')); err != nil {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
		return fmt.Errorf("%w: IPC write failed: %v", shared.ErrMediaUnavailable, err)
	}

	select {
	case reply := <-ch:
		if reply.Error != "" && reply.Error != "success" {
			return fmt.Errorf("mpv rejected %v: %s", args, reply.Error)
		}
		return nil
	case <-time.After(mpvRequestTimeout):
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
		return fmt.Errorf("%w: IPC request timed out", shared.ErrMediaUnavailable)
	}
}

// Load replaces the current source.
func (m *MPV) Load(target string) error {
	return m.command("loadfile", target, "replace")
}

// Play unpauses playback.
func (m *MPV) Play() error {
	return m.command("set_property", "pause", false)
}

// Pause pauses playback.
func (m *MPV) Pause() error {
	return m.command("set_property", "pause", true)
}

// SetPosition seeks to an absolute position in seconds.
func (m *MPV) SetPosition(seconds float64) error {
	return m.command("set_property", "time-pos", seconds)
}

// SetVolume maps 0..1 onto mpv's 0..100 scale.
func (m *MPV) SetVolume(v float64) error {
	return m.command("set_property", "volume", v*100)
}

// SetRate sets the playback speed multiplier.
func (m *MPV) SetRate(r float64) error {
	return m.command("set_property", "speed", r)
}

// Events returns the normalized event stream.
func (m *MPV) Events() <-chan MediaEvent {
	return m.events
}

// Close shuts mpv down and removes the IPC socket. Safe to call repeatedly.
func (m *MPV) Close() error {
	m.closeOnce.Do(func() {
		// Best effort; mpv exits on socket close anyway.
		m.command("quit")

		m.mu.Lock()
		conn := m.conn
		m.conn = nil
		m.mu.Unlock()

		if conn != nil {
			conn.Close()
		}
		if m.cmd != nil && m.cmd.Process != nil {
			m.closeErr = m.cmd.Wait()
		}
		os.Remove(m.socket)
	})
	return m.closeErr
}

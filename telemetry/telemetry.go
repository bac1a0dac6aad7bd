// Package telemetry provides opt-in usage reporting for the sqlpp CLI.
package telemetry

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"
)

// Event is one recorded CLI invocation.
type Event struct {
	EventType    string    `json:"event_type"`
	Command      string    `json:"command,omitempty"`
	Engine       string    `json:"engine,omitempty"`
	DurationMS   int64     `json:"duration_ms,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	OS           string    `json:"os"`
	Architecture string    `json:"arch"`
}

// Collector batches events and posts them on shutdown.
type Collector struct {
	mu       sync.Mutex
	enabled  bool
	endpoint string
	version  string
	events   []Event
	client   *http.Client
}

var (
	global *Collector
	once   sync.Once
)

// Init sets up the global collector. Telemetry stays off unless enabled
// is true and SQLPP_NO_TELEMETRY is unset.
func Init(version string, enabled bool) {
	once.Do(func() {
		global = &Collector{
			enabled:  enabled && os.Getenv("SQLPP_NO_TELEMETRY") == "",
			endpoint: endpoint(),
			version:  version,
			client:   &http.Client{Timeout: 5 * time.Second},
		}
	})
}

func endpoint() string {
	if ep := os.Getenv("SQLPP_TELEMETRY_ENDPOINT"); ep != "" {
		return ep
	}
	return "https://telemetry.sqlpp.io/events"
}

// RecordCommand records one command execution.
func RecordCommand(command, engine string, duration time.Duration, err error) {
	if global == nil || !global.enabled {
		return
	}
	e := Event{
		EventType:    "command",
		Command:      command,
		Engine:       engine,
		DurationMS:   duration.Milliseconds(),
		Timestamp:    time.Now().UTC(),
		Version:      global.version,
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
	if err != nil {
		e.Error = err.Error()
	}
	global.mu.Lock()
	global.events = append(global.events, e)
	global.mu.Unlock()
}

// Shutdown flushes pending events. Failures are ignored; telemetry must
// never break the CLI.
func Shutdown() {
	if global == nil || !global.enabled {
		return
	}
	global.mu.Lock()
	events := global.events
	global.events = nil
	global.mu.Unlock()
	if len(events) == 0 {
		return
	}

	body, err := json.Marshal(events)
	if err != nil {
		return
	}
	resp, err := global.client.Post(global.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return
	}
	resp.Body.Close()
}

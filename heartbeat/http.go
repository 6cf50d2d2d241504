package heartbeat

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/user/huntlink/logger"
)

const pingPath = "/api/tracker/ping"

// HTTPTransport posts heartbeats to the game server's tracker API.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
	results chan Result
}

// NewHTTPTransport creates a transport for the server at baseURL,
// e.g. "http://192.168.1.10:5000".
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		results: make(chan Result, 8),
	}
}

// SendHeartbeat posts the report in a goroutine and queues the outcome.
// If the results queue is full the outcome is dropped; the watchdog treats
// a missing result the same as any other silent failure.
func (t *HTTPTransport) SendHeartbeat(report Report) {
	go func() {
		t.deliver(t.ping(report))
	}()
}

// Results returns the outcome channel
func (t *HTTPTransport) Results() <-chan Result {
	return t.results
}

func (t *HTTPTransport) ping(report Report) Result {
	body, err := json.Marshal(report)
	if err != nil {
		logger.Error(report.DeviceID, "failed to marshal heartbeat: %v", err)
		return Result{}
	}

	resp, err := t.client.Post(t.baseURL+pingPath, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Debug(report.DeviceID, "heartbeat failed: %v", err)
		return Result{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debug(report.DeviceID, "heartbeat rejected: %s", resp.Status)
		io.Copy(io.Discard, resp.Body)
		return Result{}
	}

	var pr PingResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		logger.Warn(report.DeviceID, "heartbeat response unparseable: %v", err)
		// The server answered; the link is up even if the body is junk
		return Result{Success: true}
	}
	return Result{Success: true, Response: &pr}
}

func (t *HTTPTransport) deliver(r Result) {
	select {
	case t.results <- r:
	default:
	}
}

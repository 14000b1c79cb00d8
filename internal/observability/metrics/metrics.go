package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type requestLabel struct {
	method string
	path   string
	status string
}

// Recorder aggregates in-memory metrics counters and gauges for HTTP requests,
// engagement events, media uploads, and session activity. It coordinates
// concurrent writers via a RWMutex while exposing a thread-safe gauge for
// active session tracking.
type Recorder struct {
	mu               sync.RWMutex
	requestCount     map[requestLabel]uint64
	requestDuration  map[requestLabel]time.Duration
	engagementEvents map[string]uint64
	uploadAttempts   map[string]uint64
	uploadFailures   map[string]uint64
	activeSessions   atomic.Int64
}

var defaultRecorder = New()

// New constructs an empty Recorder with initialized backing maps so callers can
// immediately record metrics without additional setup.
func New() *Recorder {
	return &Recorder{
		requestCount:     make(map[requestLabel]uint64),
		requestDuration:  make(map[requestLabel]time.Duration),
		engagementEvents: make(map[string]uint64),
		uploadAttempts:   make(map[string]uint64),
		uploadFailures:   make(map[string]uint64),
	}
}

// Default returns the singleton Recorder instance shared across helper
// functions for packages that do not require custom instrumentation pipelines.
func Default() *Recorder {
	return defaultRecorder
}

// ObserveRequest normalizes the request label set and accumulates totals for
// request count and cumulative duration by HTTP method, normalized path, and
// status code.
func (r *Recorder) ObserveRequest(method, path string, status int, duration time.Duration) {
	label := requestLabel{
		method: strings.ToUpper(method),
		path:   normalizePath(path),
		status: fmt.Sprintf("%d", status),
	}
	r.mu.Lock()
	r.requestCount[label]++
	r.requestDuration[label] += duration
	r.mu.Unlock()
}

// CountEngagement records a domain engagement event such as a published video,
// a created comment, or a toggled like or subscription.
func (r *Recorder) CountEngagement(event string) {
	normalized := normalizeName(event)
	r.mu.Lock()
	r.engagementEvents[normalized]++
	r.mu.Unlock()
}

// ObserveUploadAttempt records a media upload attempt keyed by asset kind
// (e.g., "video", "thumbnail").
func (r *Recorder) ObserveUploadAttempt(kind string) {
	normalized := normalizeName(kind)
	r.mu.Lock()
	r.uploadAttempts[normalized]++
	r.mu.Unlock()
}

// ObserveUploadFailure records a failed media upload keyed by asset kind. The
// caller should also record the attempt separately.
func (r *Recorder) ObserveUploadFailure(kind string) {
	normalized := normalizeName(kind)
	r.mu.Lock()
	r.uploadFailures[normalized]++
	r.mu.Unlock()
}

// SessionCreated increments the active session gauge atomically so concurrent
// logins remain consistent.
func (r *Recorder) SessionCreated() {
	r.activeSessions.Add(1)
}

// SessionRevoked decrements the active session gauge, guarding against
// negative counts when concurrent updates race.
func (r *Recorder) SessionRevoked() {
	r.decrementGauge(&r.activeSessions)
}

// ActiveSessions exposes the current gauge of live sessions.
func (r *Recorder) ActiveSessions() int64 {
	return r.activeSessions.Load()
}

// EngagementCounts returns a copy of the engagement counters for testing and
// reporting purposes.
func (r *Recorder) EngagementCounts() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]uint64, len(r.engagementEvents))
	for k, v := range r.engagementEvents {
		counts[k] = v
	}
	return counts
}

// UploadCounts returns copies of upload attempt and failure counters.
func (r *Recorder) UploadCounts() (attempts map[string]uint64, failures map[string]uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempts = make(map[string]uint64, len(r.uploadAttempts))
	for k, v := range r.uploadAttempts {
		attempts[k] = v
	}
	failures = make(map[string]uint64, len(r.uploadFailures))
	for k, v := range r.uploadFailures {
		failures[k] = v
	}
	return attempts, failures
}

// Reset clears all counters and gauges on the recorder. It is intended for
// test setups.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestCount = make(map[requestLabel]uint64)
	r.requestDuration = make(map[requestLabel]time.Duration)
	r.engagementEvents = make(map[string]uint64)
	r.uploadAttempts = make(map[string]uint64)
	r.uploadFailures = make(map[string]uint64)
	r.activeSessions.Store(0)
}

// Handler exposes the Recorder as an http.Handler that writes Prometheus text
// exposition data with the appropriate content type.
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.Write(w)
	})
}

// Write renders the Recorder's metrics in Prometheus text format, sorting label
// sets to provide stable output for scrapes and tests.
func (r *Recorder) Write(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requestLabels := r.sortedRequestLabels()
	engagementEvents := r.sortedEngagementEvents()
	uploadKinds := r.sortedUploadKinds()

	fmt.Fprintln(w, "# HELP clipstream_http_requests_total Total number of HTTP requests processed by the API")
	fmt.Fprintln(w, "# TYPE clipstream_http_requests_total counter")
	for _, label := range requestLabels {
		count := r.requestCount[label]
		fmt.Fprintf(w, "clipstream_http_requests_total{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, count)
	}

	fmt.Fprintln(w, "# HELP clipstream_http_request_duration_seconds_sum Cumulative duration of HTTP requests in seconds")
	fmt.Fprintln(w, "# TYPE clipstream_http_request_duration_seconds_sum counter")
	for _, label := range requestLabels {
		duration := r.requestDuration[label].Seconds()
		fmt.Fprintf(w, "clipstream_http_request_duration_seconds_sum{method=\"%s\",path=\"%s\",status=\"%s\"} %f\n", label.method, label.path, label.status, duration)
	}

	fmt.Fprintln(w, "# HELP clipstream_http_request_duration_seconds_count Total number of observations for request durations")
	fmt.Fprintln(w, "# TYPE clipstream_http_request_duration_seconds_count counter")
	for _, label := range requestLabels {
		count := r.requestCount[label]
		fmt.Fprintf(w, "clipstream_http_request_duration_seconds_count{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, count)
	}

	fmt.Fprintln(w, "# HELP clipstream_engagement_events_total Engagement events by type")
	fmt.Fprintln(w, "# TYPE clipstream_engagement_events_total counter")
	for _, event := range engagementEvents {
		count := r.engagementEvents[event]
		fmt.Fprintf(w, "clipstream_engagement_events_total{event=\"%s\"} %d\n", event, count)
	}

	fmt.Fprintln(w, "# HELP clipstream_upload_attempts_total Total media uploads attempted by asset kind")
	fmt.Fprintln(w, "# TYPE clipstream_upload_attempts_total counter")
	for _, kind := range uploadKinds {
		count := r.uploadAttempts[kind]
		fmt.Fprintf(w, "clipstream_upload_attempts_total{kind=\"%s\"} %d\n", kind, count)
	}

	fmt.Fprintln(w, "# HELP clipstream_upload_failures_total Total media upload failures by asset kind")
	fmt.Fprintln(w, "# TYPE clipstream_upload_failures_total counter")
	for _, kind := range uploadKinds {
		count := r.uploadFailures[kind]
		fmt.Fprintf(w, "clipstream_upload_failures_total{kind=\"%s\"} %d\n", kind, count)
	}

	fmt.Fprintln(w, "# HELP clipstream_active_sessions Current number of live sessions")
	fmt.Fprintln(w, "# TYPE clipstream_active_sessions gauge")
	fmt.Fprintf(w, "clipstream_active_sessions %d\n", r.activeSessions.Load())
}

func (r *Recorder) sortedRequestLabels() []requestLabel {
	labels := make([]requestLabel, 0, len(r.requestCount))
	for label := range r.requestCount {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].method != labels[j].method {
			return labels[i].method < labels[j].method
		}
		if labels[i].path != labels[j].path {
			return labels[i].path < labels[j].path
		}
		return labels[i].status < labels[j].status
	})
	return labels
}

func (r *Recorder) sortedEngagementEvents() []string {
	events := make([]string, 0, len(r.engagementEvents))
	for event := range r.engagementEvents {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}

func (r *Recorder) sortedUploadKinds() []string {
	seen := make(map[string]struct{}, len(r.uploadAttempts)+len(r.uploadFailures))
	for kind := range r.uploadAttempts {
		seen[kind] = struct{}{}
	}
	for kind := range r.uploadFailures {
		seen[kind] = struct{}{}
	}
	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func normalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if looksLikeIdentifier(part) {
			parts[i] = ":id"
			continue
		}
	}
	normalized := strings.Join(parts, "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if strings.HasSuffix(normalized, "/") && len(normalized) > 1 {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	return normalized
}

func looksLikeIdentifier(segment string) bool {
	if len(segment) >= 16 {
		return true
	}
	digitCount := 0
	for _, r := range segment {
		if r >= '0' && r <= '9' {
			digitCount++
		}
	}
	return digitCount >= 3
}

func (r *Recorder) decrementGauge(gauge *atomic.Int64) {
	for {
		current := gauge.Load()
		if current <= 0 {
			return
		}
		if gauge.CompareAndSwap(current, current-1) {
			return
		}
	}
}

func normalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

// ObserveRequest is a helper on the default recorder.
func ObserveRequest(method, path string, status int, duration time.Duration) {
	defaultRecorder.ObserveRequest(method, path, status, duration)
}

// CountEngagement records an engagement event on the default recorder.
func CountEngagement(event string) {
	defaultRecorder.CountEngagement(event)
}

// ObserveUploadAttempt records an upload attempt on the default recorder.
func ObserveUploadAttempt(kind string) {
	defaultRecorder.ObserveUploadAttempt(kind)
}

// ObserveUploadFailure records an upload failure on the default recorder.
func ObserveUploadFailure(kind string) {
	defaultRecorder.ObserveUploadFailure(kind)
}

// SessionCreated increments active sessions on the default recorder.
func SessionCreated() {
	defaultRecorder.SessionCreated()
}

// SessionRevoked decrements active sessions on the default recorder.
func SessionRevoked() {
	defaultRecorder.SessionRevoked()
}

// Handler exposes the default recorder as an HTTP handler.
func Handler() http.Handler {
	return defaultRecorder.Handler()
}

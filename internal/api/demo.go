package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"regexp"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDemoToken is attached when demo mode is on and nobody is logged in
const DefaultDemoToken = "demo-mode-token"

var challengeCompletePath = regexp.MustCompile(`^/gamification/challenges/[^/]+/complete$`)

// DemoMocks holds canned GET responses keyed by path plus encoded query
type DemoMocks struct {
	mu    sync.RWMutex
	mocks map[string]json.RawMessage
}

// NewDemoMocks creates an empty mock set
func NewDemoMocks() *DemoMocks {
	return &DemoMocks{mocks: make(map[string]json.RawMessage)}
}

// DefaultDemoMocks returns the data shown on the dashboard in demo mode
func DefaultDemoMocks() *DemoMocks {
	d := NewDemoMocks()
	d.Set("/gamification/points", map[string]interface{}{"points": 350, "level": 3})
	d.Set("/gamification/challenges", []map[string]interface{}{
		{"id": 1, "title": "Morning Mindful Breathing", "description": "5 minutes of mindful breathing", "points_earned": 10, "completed": false},
		{"id": 2, "title": "Gratitude Journal", "description": "Write 3 things you're grateful for", "points_earned": 15, "completed": true},
	})
	d.Set("/gamification/leaderboard", []map[string]interface{}{
		{"rank": 1, "username": "alice", "level": 5, "points": 1200},
		{"rank": 2, "username": "bob", "level": 4, "points": 950},
		{"rank": 3, "username": "carol", "level": 4, "points": 820},
	})
	d.Set("/analytics/mood-logs?limit=30", demoMoodLogs(time.Now()))
	d.Set("/analytics/trends", map[string]interface{}{
		"summary": "Stable",
		"trend":   []map[string]interface{}{{"date": "2025-11-01", "mood": 6}},
	})
	return d
}

// demoMoodLogs generates ten days of plausible mood data ending at now
func demoMoodLogs(now time.Time) []map[string]interface{} {
	logs := make([]map[string]interface{}, 0, 10)
	for i := 0; i < 10; i++ {
		notes := ""
		if i%2 == 0 {
			notes = "Feeling okay"
		}
		logs = append(logs, map[string]interface{}{
			"id":            i + 1,
			"created_at":    now.AddDate(0, 0, i-9).UTC().Format(time.RFC3339),
			"mood_score":    int(math.Round(6 + math.Sin(float64(i))*2)),
			"stress_level":  4 + i%3,
			"anxiety_level": 3 + (i+1)%3,
			"notes":         notes,
		})
	}
	return logs
}

// LoadDemoMocks reads a YAML mapping of "path[?query]" to response body
func LoadDemoMocks(path string) (*DemoMocks, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read demo mocks: %w", err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse demo mocks %s: %w", path, err)
	}
	d := NewDemoMocks()
	for key, body := range raw {
		d.Set(key, body)
	}
	return d, nil
}

// Set registers body for a GET of pathWithQuery. An "/api" prefix is dropped.
func (d *DemoMocks) Set(pathWithQuery string, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		data = []byte("null")
	}
	req := NewRequest(http.MethodGet, pathWithQuery, nil)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.mocks[req.PathWithQuery()] = data
}

// Len returns the number of registered mocks
func (d *DemoMocks) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.mocks)
}

// Lookup returns a canned response for req, if one applies
func (d *DemoMocks) Lookup(req *Request) (*Response, bool) {
	if req.Method == http.MethodPost && challengeCompletePath.MatchString(req.Path) {
		return JSONResponse(http.StatusOK, map[string]interface{}{"success": true}, SourceDemo), true
	}
	if req.Method != http.MethodGet || d == nil {
		return nil, false
	}

	d.mu.RLock()
	data, ok := d.mocks[req.PathWithQuery()]
	d.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return &Response{Data: data, Status: http.StatusOK, Source: SourceDemo}, true
}

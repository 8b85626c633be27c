package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/iksnae/serenity-guest/internal"
)

// JSONLExporter exports one record per line, each tagged with its type
type JSONLExporter struct{}

// Export exports a snapshot to JSONL format
func (e *JSONLExporter) Export(snapshot *internal.GuestSnapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	encode := func(obj map[string]interface{}) error {
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode %v record: %w", obj["type"], err)
		}
		return nil
	}

	for _, session := range snapshot.ChatSessions {
		for _, msg := range session.Messages {
			obj := map[string]interface{}{
				"type":      "chat_message",
				"session":   sessionKey(session),
				"role":      msg.Role,
				"content":   msg.Content,
				"timestamp": msg.Timestamp,
			}
			if msg.Intent != "" {
				obj["intent"] = msg.Intent
			}
			if msg.CopingStrategy != "" {
				obj["coping_strategy"] = msg.CopingStrategy
			}
			if err := encode(obj); err != nil {
				return err
			}
		}
	}

	for _, log := range snapshot.MoodLogs {
		obj := map[string]interface{}{
			"type":          "mood_log",
			"id":            log.ID,
			"mood_score":    log.MoodScore,
			"stress_level":  log.StressLevel,
			"anxiety_level": log.AnxietyLevel,
			"timestamp":     log.Timestamp,
		}
		if log.Notes != "" {
			obj["notes"] = log.Notes
		}
		if err := encode(obj); err != nil {
			return err
		}
	}

	for _, groupID := range sortedGroups(snapshot) {
		for _, msg := range snapshot.PeerMessages[groupID] {
			if err := encode(map[string]interface{}{
				"type":      "peer_message",
				"groupId":   groupID,
				"role":      msg.Role,
				"content":   msg.Content,
				"timestamp": msg.Timestamp,
			}); err != nil {
				return err
			}
		}
	}

	return encode(map[string]interface{}{
		"type":   "wellness_points",
		"points": snapshot.WellnessPoints.Points,
		"level":  snapshot.WellnessPoints.Level(),
	})
}

// sessionKey prefers the conversation id shared by related sessions
func sessionKey(session internal.ChatSession) string {
	if session.SessionID != "" {
		return session.SessionID
	}
	return session.ID
}

func sortedGroups(snapshot *internal.GuestSnapshot) []string {
	groups := make([]string, 0, len(snapshot.PeerMessages))
	for g := range snapshot.PeerMessages {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}

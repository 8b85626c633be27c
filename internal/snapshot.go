package internal

import "time"

// GuestSnapshot is everything the guest store holds, read at one moment
type GuestSnapshot struct {
	GuestID        string                   `json:"guestId" yaml:"guest_id"`
	ExportedAt     time.Time                `json:"exportedAt" yaml:"exported_at"`
	ChatSessions   []ChatSession            `json:"chatSessions" yaml:"chat_sessions"`
	MoodLogs       []MoodLog                `json:"moodLogs" yaml:"mood_logs"`
	WellnessPoints WellnessPoints           `json:"wellnessPoints" yaml:"wellness_points"`
	PeerMessages   map[string][]PeerMessage `json:"peerMessages" yaml:"peer_messages"`
	Preferences    Preferences              `json:"preferences" yaml:"preferences"`
}

// Snapshot reads every guest collection under the store lock, so it never
// observes a half-finished sync or clear
func (s *GuestStore) Snapshot() *GuestSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &GuestSnapshot{
		GuestID:        s.guestID,
		ExportedAt:     time.Now().UTC(),
		ChatSessions:   s.chatSessionsLocked(),
		MoodLogs:       s.moodLogsLocked(),
		WellnessPoints: s.wellnessPointsLocked(),
		PeerMessages:   make(map[string][]PeerMessage),
		Preferences:    s.preferencesLocked(),
	}
	for _, groupID := range s.peerGroupsLocked() {
		snap.PeerMessages[groupID] = s.peerMessagesLocked(groupID)
	}
	return snap
}

// MessageCount returns the number of chat messages across all sessions
func (gs *GuestSnapshot) MessageCount() int {
	n := 0
	for _, session := range gs.ChatSessions {
		n += len(session.Messages)
	}
	return n
}

package internal

import (
	"time"
)

// CreateTestChatSession creates a chat session with one user/bot exchange
func CreateTestChatSession(id string) ChatSession {
	now := time.Now().UnixMilli()
	return ChatSession{
		ID:        id,
		SessionID: "sess-" + id,
		Timestamp: now,
		Messages: []ChatMessage{
			{
				Role:      RoleUser,
				Content:   "I can't sleep before exams",
				Timestamp: now,
			},
			{
				Role:           RoleBot,
				Content:        "Academic pressure is tough.",
				Timestamp:      now,
				Intent:         "academic",
				CopingStrategy: "Break the task into 25-minute blocks.",
			},
		},
	}
}

// CreateTestChatSessionWithMessages creates a chat session with custom messages
func CreateTestChatSessionWithMessages(id string, messages []ChatMessage) ChatSession {
	return ChatSession{
		ID:        id,
		SessionID: "sess-" + id,
		Timestamp: time.Now().UnixMilli(),
		Messages:  messages,
	}
}

// CreateTestMoodLog creates a mood log with the given scores
func CreateTestMoodLog(mood, stress, anxiety int, notes string) MoodLog {
	return MoodLog{
		MoodScore:    mood,
		StressLevel:  stress,
		AnxietyLevel: anxiety,
		Notes:        notes,
	}
}

// CreateTestPeerMessage creates a user peer message
func CreateTestPeerMessage(content string) PeerMessage {
	return PeerMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// CreateTestSnapshot creates a snapshot with one of each record type
func CreateTestSnapshot(guestID string) *GuestSnapshot {
	log := CreateTestMoodLog(6, 4, 3, "Feeling okay")
	log.ID = "guest_log1"
	log.Timestamp = time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC).UnixMilli()

	peer := CreateTestPeerMessage("Hi everyone")
	peer.ID = "guest_peer1"
	peer.GroupID = "1"

	return &GuestSnapshot{
		GuestID:        guestID,
		ExportedAt:     time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC),
		ChatSessions:   []ChatSession{CreateTestChatSession("s1")},
		MoodLogs:       []MoodLog{log},
		WellnessPoints: WellnessPoints{Points: 120},
		PeerMessages:   map[string][]PeerMessage{"1": {peer}},
		Preferences:    Preferences{"theme": "dark"},
	}
}

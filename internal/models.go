package internal

import (
	"time"
)

// Storage keys owned by the guest store
const (
	KeyChatSessions   = "guest_chat_sessions"
	KeyMoodLogs       = "guest_mood_logs"
	KeyWellnessPoints = "guest_wellness_points"
	KeyPeerMessages   = "guest_peer_messages"
	KeyPeerGroups     = "guest_peer_groups"
	KeyPreferences    = "guest_preferences"
	KeyGuestID        = "guest_id"
)

// Token keys owned by the token store
const (
	KeyToken       = "token"
	KeyAccessToken = "access_token"
)

// Message roles
const (
	RoleUser   = "user"
	RoleBot    = "bot"
	RolePeer   = "peer"
	RoleSystem = "system"
)

// PointsPerChat is awarded for each guest chat exchange
const PointsPerChat = 5

// PointsPerChallenge is awarded for each completed wellness challenge
const PointsPerChallenge = 10

// ChatMessage is one turn inside a chat session
type ChatMessage struct {
	Role           string `json:"role" yaml:"role"`
	Content        string `json:"content" yaml:"content"`
	Timestamp      int64  `json:"timestamp" yaml:"timestamp"`
	Intent         string `json:"intent,omitempty" yaml:"intent,omitempty"`
	CopingStrategy string `json:"coping_strategy,omitempty" yaml:"coping_strategy,omitempty"`
}

// ChatSession is one guest conversation exchange
type ChatSession struct {
	ID        string        `json:"id" yaml:"id"`
	Messages  []ChatMessage `json:"messages" yaml:"messages"`
	SessionID string        `json:"sessionId,omitempty" yaml:"session_id,omitempty"`
	Timestamp int64         `json:"timestamp" yaml:"timestamp"`
}

// MoodLog is one guest mood entry. Scores are 1-10.
type MoodLog struct {
	ID           string `json:"id" yaml:"id"`
	MoodScore    int    `json:"mood_score" yaml:"mood_score"`
	StressLevel  int    `json:"stress_level" yaml:"stress_level"`
	AnxietyLevel int    `json:"anxiety_level" yaml:"anxiety_level"`
	Notes        string `json:"notes,omitempty" yaml:"notes,omitempty"`
	Timestamp    int64  `json:"timestamp" yaml:"timestamp"`
}

// WellnessPoints is the guest gamification counter
type WellnessPoints struct {
	Points      int   `json:"points" yaml:"points"`
	LastUpdated int64 `json:"lastUpdated,omitempty" yaml:"last_updated,omitempty"`
}

// Level returns the wellness level; one level per 100 points, starting at 1
func (wp WellnessPoints) Level() int {
	if wp.Points < 0 {
		return 1
	}
	return wp.Points/100 + 1
}

// PeerMessage is one message within a peer group
type PeerMessage struct {
	ID        string `json:"id" yaml:"id"`
	GroupID   string `json:"groupId" yaml:"group_id"`
	Role      string `json:"role" yaml:"role"`
	Content   string `json:"content" yaml:"content"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
}

// Preferences is a free-form mapping of guest settings
type Preferences map[string]interface{}

// SyncResult reports the outcome of uploading guest data
type SyncResult struct {
	Success        bool  `json:"success" yaml:"success"`
	SessionsSynced int   `json:"sessions_synced" yaml:"sessions_synced"`
	LogsSynced     int   `json:"logs_synced" yaml:"logs_synced"`
	Err            error `json:"-" yaml:"-"`
}

// PeerMessagesKey returns the partition key for a group's messages
func PeerMessagesKey(groupID string) string {
	return KeyPeerMessages + "_" + groupID
}

// nowMillis returns the current Unix time in milliseconds
func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// MillisToTime converts a stored millisecond timestamp to time.Time
func MillisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Time returns the creation time of the session
func (cs *ChatSession) Time() time.Time {
	return MillisToTime(cs.Timestamp)
}

// Time returns the creation time of the log
func (ml *MoodLog) Time() time.Time {
	return MillisToTime(ml.Timestamp)
}

// Time returns the creation time of the message
func (pm *PeerMessage) Time() time.Time {
	return MillisToTime(pm.Timestamp)
}

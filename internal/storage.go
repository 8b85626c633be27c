package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Remote endpoints that receive guest data on sync
const (
	SyncChatSessionsPath = "/chatbot/sync"
	SyncMoodLogsPath     = "/analytics/sync"
)

// SyncClient posts a JSON body to a remote endpoint
type SyncClient interface {
	PostJSON(ctx context.Context, path string, body interface{}) error
}

// GuestStore persists guest-mode data into a Backend. Every collection is
// read, modified and written back whole.
type GuestStore struct {
	backend Backend
	tokens  *TokenStore
	mu      sync.RWMutex
	guestID string
}

// NewGuestStore creates a store over backend and ensures a guest id exists
func NewGuestStore(backend Backend) *GuestStore {
	s := &GuestStore{
		backend: backend,
		tokens:  NewTokenStore(backend),
	}
	s.guestID = s.loadOrCreateGuestID()
	return s
}

// Backend returns the backend the store writes into
func (s *GuestStore) Backend() Backend {
	return s.backend
}

// Tokens returns the token store sharing this store's backend
func (s *GuestStore) Tokens() *TokenStore {
	return s.tokens
}

func (s *GuestStore) loadOrCreateGuestID() string {
	if id, ok, err := s.backend.Get(KeyGuestID); err == nil && ok && id != "" {
		return id
	} else if err != nil {
		LogWarn("Failed to read guest id: %v", err)
	}

	id := newGuestID()
	if err := s.backend.Set(KeyGuestID, id); err != nil {
		LogWarn("Failed to persist guest id: %v", err)
	}
	return id
}

// GuestID returns the anonymous identifier for this storage
func (s *GuestStore) GuestID() string {
	return s.guestID
}

func newGuestID() string {
	return "guest_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

func newRecordID() string {
	return "guest_" + uuid.NewString()
}

// readJSON decodes key into v. Missing, unreadable or malformed values
// leave v untouched and report false.
func (s *GuestStore) readJSON(key string, v interface{}) bool {
	raw, ok, err := s.backend.Get(key)
	if err != nil {
		LogWarn("Treating %s as empty: %v", key, err)
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		LogWarn("Treating %s as empty: %v", key, &ParseError{Key: key, Err: err})
		return false
	}
	return true
}

func (s *GuestStore) writeJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.backend.Set(key, string(data))
}

// SaveChatSession appends a chat session. A caller-supplied id is kept.
func (s *GuestStore) SaveChatSession(session ChatSession) (ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" {
		session.ID = newRecordID()
	}
	if session.Messages == nil {
		session.Messages = []ChatMessage{}
	}
	session.Timestamp = nowMillis()

	sessions := s.chatSessionsLocked()
	sessions = append(sessions, session)
	if err := s.writeJSON(KeyChatSessions, sessions); err != nil {
		return session, err
	}
	return session, nil
}

// GetChatSessions returns all chat sessions in insertion order
func (s *GuestStore) GetChatSessions() []ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatSessionsLocked()
}

func (s *GuestStore) chatSessionsLocked() []ChatSession {
	sessions := []ChatSession{}
	if !s.readJSON(KeyChatSessions, &sessions) || sessions == nil {
		return []ChatSession{}
	}
	return sessions
}

// GetChatHistory returns the messages of every session tagged with sessionID
func (s *GuestStore) GetChatHistory(sessionID string) []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := []ChatMessage{}
	for _, session := range s.chatSessionsLocked() {
		if session.SessionID == sessionID || session.ID == sessionID {
			messages = append(messages, session.Messages...)
		}
	}
	return messages
}

// SaveMoodLog appends a mood log with a fresh id and timestamp
func (s *GuestStore) SaveMoodLog(log MoodLog) (MoodLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.ID = newRecordID()
	log.Timestamp = nowMillis()

	logs := s.moodLogsLocked()
	logs = append(logs, log)
	if err := s.writeJSON(KeyMoodLogs, logs); err != nil {
		return log, err
	}
	return log, nil
}

// GetMoodLogs returns all mood logs in insertion order
func (s *GuestStore) GetMoodLogs() []MoodLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moodLogsLocked()
}

func (s *GuestStore) moodLogsLocked() []MoodLog {
	logs := []MoodLog{}
	if !s.readJSON(KeyMoodLogs, &logs) || logs == nil {
		return []MoodLog{}
	}
	return logs
}

// GetMoodLogsNewestFirst returns mood logs in reverse-chronological order
func (s *GuestStore) GetMoodLogsNewestFirst() []MoodLog {
	logs := s.GetMoodLogs()
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	return logs
}

// SavePeerMessage appends a message to groupID's partition
func (s *GuestStore) SavePeerMessage(groupID string, msg PeerMessage) (PeerMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = newRecordID()
	msg.Timestamp = nowMillis()
	msg.GroupID = groupID
	if msg.Role == "" {
		msg.Role = RoleUser
	}

	messages := s.peerMessagesLocked(groupID)
	messages = append(messages, msg)
	if err := s.savePeerMessages(groupID, messages); err != nil {
		return msg, err
	}
	return msg, nil
}

// GetPeerMessages returns groupID's messages in insertion order. Entries
// tagged with another group are dropped.
func (s *GuestStore) GetPeerMessages(groupID string) []PeerMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peerMessagesLocked(groupID)
}

func (s *GuestStore) peerMessagesLocked(groupID string) []PeerMessage {
	stored := []PeerMessage{}
	if !s.readJSON(PeerMessagesKey(groupID), &stored) {
		return []PeerMessage{}
	}

	messages := make([]PeerMessage, 0, len(stored))
	for _, msg := range stored {
		if msg.GroupID == "" {
			msg.GroupID = groupID
		}
		if msg.GroupID != groupID {
			LogWarn("Dropping peer message %s tagged %q from group %q", msg.ID, msg.GroupID, groupID)
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

// SeedPeerGroup writes a welcome and a greeting into an empty group and
// returns the group's messages
func (s *GuestStore) SeedPeerGroup(groupID, groupName string) ([]PeerMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.peerMessagesLocked(groupID); len(existing) > 0 {
		return existing, nil
	}

	now := nowMillis()
	seeded := []PeerMessage{
		{
			ID:        "sys_" + uuid.NewString(),
			GroupID:   groupID,
			Role:      RoleSystem,
			Content:   fmt.Sprintf("Welcome to %s. Be kind and supportive.", groupName),
			Timestamp: now - 60_000,
		},
		{
			ID:        "peer_" + uuid.NewString(),
			GroupID:   groupID,
			Role:      RolePeer,
			Content:   "Hi everyone, glad to be here!",
			Timestamp: now - 80_000,
		},
	}
	if err := s.savePeerMessages(groupID, seeded); err != nil {
		return seeded, err
	}
	return seeded, nil
}

func (s *GuestStore) savePeerMessages(groupID string, messages []PeerMessage) error {
	if err := s.writeJSON(PeerMessagesKey(groupID), messages); err != nil {
		return err
	}
	return s.trackPeerGroup(groupID)
}

// PeerGroups returns the ids of groups holding guest messages
func (s *GuestStore) PeerGroups() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peerGroupsLocked()
}

func (s *GuestStore) peerGroupsLocked() []string {
	groups := []string{}
	if !s.readJSON(KeyPeerGroups, &groups) || groups == nil {
		return []string{}
	}
	return groups
}

func (s *GuestStore) trackPeerGroup(groupID string) error {
	groups := s.peerGroupsLocked()
	for _, g := range groups {
		if g == groupID {
			return nil
		}
	}
	return s.writeJSON(KeyPeerGroups, append(groups, groupID))
}

// SaveWellnessPoints overwrites the points total
func (s *GuestStore) SaveWellnessPoints(points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveWellnessPointsLocked(points)
}

func (s *GuestStore) saveWellnessPointsLocked(points int) error {
	if points < 0 {
		return fmt.Errorf("wellness points must not be negative: %d", points)
	}
	return s.writeJSON(KeyWellnessPoints, WellnessPoints{
		Points:      points,
		LastUpdated: nowMillis(),
	})
}

// GetWellnessPoints returns the points total, zero if never saved
func (s *GuestStore) GetWellnessPoints() WellnessPoints {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wellnessPointsLocked()
}

func (s *GuestStore) wellnessPointsLocked() WellnessPoints {
	var wp WellnessPoints
	if !s.readJSON(KeyWellnessPoints, &wp) {
		return WellnessPoints{Points: 0}
	}
	return wp
}

// AddWellnessPoints adds delta to the stored total. Negative deltas are ignored.
func (s *GuestStore) AddWellnessPoints(delta int) (WellnessPoints, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.wellnessPointsLocked()
	if delta < 0 {
		LogWarn("Ignoring negative wellness points delta %d", delta)
		delta = 0
	}
	total := current.Points + delta
	if err := s.saveWellnessPointsLocked(total); err != nil {
		return current, err
	}
	return s.wellnessPointsLocked(), nil
}

// SavePreferences overwrites the preferences mapping
func (s *GuestStore) SavePreferences(prefs Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prefs == nil {
		prefs = Preferences{}
	}
	return s.writeJSON(KeyPreferences, prefs)
}

// GetPreferences returns the preferences mapping, empty if never saved
func (s *GuestStore) GetPreferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preferencesLocked()
}

func (s *GuestStore) preferencesLocked() Preferences {
	prefs := Preferences{}
	if !s.readJSON(KeyPreferences, &prefs) || prefs == nil {
		return Preferences{}
	}
	return prefs
}

// SyncWithServer uploads guest chat sessions and mood logs, then clears
// local guest data. Nothing is cleared unless every upload succeeded.
func (s *GuestStore) SyncWithServer(ctx context.Context, client SyncClient, userID string) SyncResult {
	// Held across the uploads so nothing saved mid-sync is cleared unsent.
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.chatSessionsLocked()
	if len(sessions) > 0 {
		body := map[string]interface{}{"sessions": sessions, "userId": userID}
		if err := client.PostJSON(ctx, SyncChatSessionsPath, body); err != nil {
			syncErr := &SyncError{Endpoint: SyncChatSessionsPath, Err: err}
			LogError("Error syncing guest data: %v", syncErr)
			return SyncResult{Success: false, Err: syncErr}
		}
	}

	logs := s.moodLogsLocked()
	if len(logs) > 0 {
		body := map[string]interface{}{"logs": logs, "userId": userID}
		if err := client.PostJSON(ctx, SyncMoodLogsPath, body); err != nil {
			syncErr := &SyncError{Endpoint: SyncMoodLogsPath, Err: err}
			LogError("Error syncing guest data: %v", syncErr)
			return SyncResult{Success: false, Err: syncErr}
		}
	}

	if err := s.clearAllLocked(); err != nil {
		LogError("Synced guest data but failed to clear it: %v", err)
		return SyncResult{Success: false, SessionsSynced: len(sessions), LogsSynced: len(logs), Err: err}
	}

	LogInfo("Synced %d chat session(s) and %d mood log(s) for user %s", len(sessions), len(logs), userID)
	return SyncResult{Success: true, SessionsSynced: len(sessions), LogsSynced: len(logs)}
}

// ClearAll removes every key the store owns except the guest id
func (s *GuestStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearAllLocked()
}

func (s *GuestStore) clearAllLocked() error {
	keys := []string{KeyChatSessions, KeyMoodLogs, KeyWellnessPoints, KeyPreferences}
	for _, groupID := range s.peerGroupsLocked() {
		keys = append(keys, PeerMessagesKey(groupID))
	}
	if lister, ok := s.backend.(KeyLister); ok {
		extra, err := lister.Keys(KeyPeerMessages + "_")
		if err != nil {
			LogWarn("Failed to list peer message keys: %v", err)
		}
		keys = append(keys, extra...)
	}
	// The group index goes last so a failed clear can be retried.
	keys = append(keys, KeyPeerGroups)

	var errs []error
	for _, key := range keys {
		if err := s.backend.Remove(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsGuest reports whether no auth token is stored
func (s *GuestStore) IsGuest() bool {
	return s.tokens.Token() == ""
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iksnae/serenity-guest/internal"
)

// GuestHandlers answers guest-mode requests from store
type GuestHandlers struct {
	store *internal.GuestStore
}

// DefaultHandlers registers every guest-mode endpoint backed by store
func DefaultHandlers(store *internal.GuestStore) *Registry {
	h := &GuestHandlers{store: store}
	r := NewRegistry()

	r.Handle(http.MethodPost, "/chatbot/message", h.saveMessage)
	r.Handle(http.MethodPost, "/chatbot/chat", h.chat)
	r.Handle(http.MethodGet, "/chatbot/sessions", h.sessions)
	r.Handle(http.MethodGet, "/chatbot/history/{sessionId}", h.history)

	r.Handle(http.MethodPost, "/analytics/mood", h.saveMood)
	r.Handle(http.MethodPost, "/analytics/mood-log", h.saveMood)
	r.Handle(http.MethodGet, "/analytics/mood-logs", h.moodLogs)

	r.Handle(http.MethodPost, "/peer/message", h.savePeerMessage)
	r.Handle(http.MethodGet, "/peer/messages", h.peerMessages)

	r.Handle(http.MethodPost, "/gamification/points", h.addPoints)
	r.Handle(http.MethodGet, "/gamification/points", h.points)

	r.Handle(http.MethodGet, "/user/preferences", h.preferences)
	r.Handle(http.MethodPut, "/user/preferences", h.savePreferences)
	r.Handle(http.MethodPost, "/user/preferences", h.savePreferences)

	return r
}

// optionalString maps "" to nil so it encodes as JSON null
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func localJSON(v interface{}) *Response {
	return JSONResponse(http.StatusOK, v, SourceLocal)
}

// decodeBody decodes the request body, logging rather than failing on bad input
func decodeBody(req *Request, v interface{}) {
	if err := req.DecodeBody(v); err != nil {
		internal.LogWarn("Ignoring malformed body for %s %s: %v", req.Method, req.Path, err)
	}
}

func logSaveError(what string, err error) {
	if err != nil {
		internal.LogError("Failed to save guest %s: %v", what, err)
	}
}

type chatPayload struct {
	Message   string `json:"message"`
	Content   string `json:"content"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
}

func (p chatPayload) text() string {
	if p.Message != "" {
		return p.Message
	}
	return p.Content
}

// saveMessage stores the raw payload as a one-message session
func (h *GuestHandlers) saveMessage(_ context.Context, req *Request) *Response {
	var p chatPayload
	decodeBody(req, &p)

	role := p.Role
	if role == "" {
		role = internal.RoleUser
	}
	session, err := h.store.SaveChatSession(internal.ChatSession{
		Messages: []internal.ChatMessage{{
			Role:      role,
			Content:   p.text(),
			Timestamp: time.Now().UnixMilli(),
		}},
		SessionID: p.SessionID,
	})
	logSaveError("chat message", err)

	return localJSON(map[string]interface{}{"success": true, "session": session})
}

// ChatResponse is the reply to POST /chatbot/chat
type ChatResponse struct {
	Response       string  `json:"response"`
	SessionID      string  `json:"session_id"`
	Intent         string  `json:"intent"`
	Emotion        string  `json:"emotion"`
	Sentiment      string  `json:"sentiment"`
	CopingStrategy *string `json:"coping_strategy"`
}

// chat answers with a canned reply, records the exchange and awards points
func (h *GuestHandlers) chat(_ context.Context, req *Request) *Response {
	var p chatPayload
	decodeBody(req, &p)

	message := p.text()
	reply := ComposeReply(message)

	session := internal.ChatSession{SessionID: p.SessionID}
	if session.SessionID == "" {
		session.ID = "guest_" + uuid.NewString()
		session.SessionID = session.ID
	}
	now := time.Now().UnixMilli()
	session.Messages = []internal.ChatMessage{
		{Role: internal.RoleUser, Content: message, Timestamp: now},
		{
			Role:           internal.RoleBot,
			Content:        reply.Reply,
			Timestamp:      now,
			Intent:         string(reply.Intent),
			CopingStrategy: reply.CopingStrategy,
		},
	}

	saved, err := h.store.SaveChatSession(session)
	logSaveError("chat session", err)

	_, err = h.store.AddWellnessPoints(internal.PointsPerChat)
	logSaveError("wellness points", err)

	return localJSON(ChatResponse{
		Response:       reply.Text(),
		SessionID:      saved.SessionID,
		Intent:         string(reply.Intent),
		Emotion:        "neutral",
		Sentiment:      "NEUTRAL",
		CopingStrategy: optionalString(reply.CopingStrategy),
	})
}

func (h *GuestHandlers) sessions(context.Context, *Request) *Response {
	return localJSON(map[string]interface{}{"sessions": h.store.GetChatSessions()})
}

// HistoryEntry pairs a user message with the reply that followed it
type HistoryEntry struct {
	Message   string `json:"message"`
	Response  string `json:"response"`
	Emotion   string `json:"emotion"`
	Intent    string `json:"intent,omitempty"`
	CreatedAt string `json:"created_at"`
}

// history returns the exchanges of one session in the server's history shape
func (h *GuestHandlers) history(_ context.Context, req *Request) *Response {
	messages := h.store.GetChatHistory(req.Vars["sessionId"])
	return localJSON(HistoryFromMessages(messages))
}

// HistoryFromMessages folds a flat message list into user/reply pairs. A user
// message with no reply yields an entry with an empty response.
func HistoryFromMessages(messages []internal.ChatMessage) []HistoryEntry {
	entries := []HistoryEntry{}
	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		if msg.Role != internal.RoleUser {
			continue
		}
		entry := HistoryEntry{
			Message:   msg.Content,
			Emotion:   "neutral",
			CreatedAt: internal.MillisToTime(msg.Timestamp).UTC().Format(time.RFC3339),
		}
		if i+1 < len(messages) && messages[i+1].Role == internal.RoleBot {
			entry.Response = messages[i+1].Content
			entry.Intent = messages[i+1].Intent
			i++
		}
		entries = append(entries, entry)
	}
	return entries
}

func (h *GuestHandlers) saveMood(_ context.Context, req *Request) *Response {
	var log internal.MoodLog
	decodeBody(req, &log)

	saved, err := h.store.SaveMoodLog(log)
	logSaveError("mood log", err)

	return localJSON(map[string]interface{}{"success": true, "log": saved})
}

// moodLogs returns logs newest first, honoring a positive limit
func (h *GuestHandlers) moodLogs(_ context.Context, req *Request) *Response {
	logs := h.store.GetMoodLogsNewestFirst()
	if limit, err := strconv.Atoi(req.Query.Get("limit")); err == nil && limit > 0 && limit < len(logs) {
		logs = logs[:limit]
	}
	return localJSON(map[string]interface{}{"logs": logs})
}

type peerPayload struct {
	GroupID string          `json:"groupId"`
	Message json.RawMessage `json:"message"`
}

// peerMessage accepts either a bare string or a message object
func (p peerPayload) peerMessage() internal.PeerMessage {
	var msg internal.PeerMessage
	var text string
	if err := json.Unmarshal(p.Message, &text); err == nil {
		msg.Content = text
		return msg
	}
	if len(p.Message) > 0 {
		if err := json.Unmarshal(p.Message, &msg); err != nil {
			internal.LogWarn("Ignoring malformed peer message: %v", err)
		}
	}
	return msg
}

func (h *GuestHandlers) savePeerMessage(_ context.Context, req *Request) *Response {
	var p peerPayload
	decodeBody(req, &p)

	saved, err := h.store.SavePeerMessage(p.GroupID, p.peerMessage())
	logSaveError("peer message", err)

	return localJSON(map[string]interface{}{"success": true, "message": saved})
}

func (h *GuestHandlers) peerMessages(_ context.Context, req *Request) *Response {
	groupID := req.Query.Get("groupId")
	if groupID == "" {
		return localJSON(map[string]interface{}{"messages": []internal.PeerMessage{}})
	}
	return localJSON(map[string]interface{}{"messages": h.store.GetPeerMessages(groupID)})
}

func (h *GuestHandlers) addPoints(_ context.Context, req *Request) *Response {
	var p struct {
		Points int `json:"points"`
	}
	decodeBody(req, &p)

	wp, err := h.store.AddWellnessPoints(p.Points)
	logSaveError("wellness points", err)

	return localJSON(map[string]interface{}{"success": true, "points": wp.Points})
}

func (h *GuestHandlers) points(context.Context, *Request) *Response {
	return localJSON(h.store.GetWellnessPoints())
}

func (h *GuestHandlers) preferences(context.Context, *Request) *Response {
	return localJSON(h.store.GetPreferences())
}

func (h *GuestHandlers) savePreferences(_ context.Context, req *Request) *Response {
	prefs := internal.Preferences{}
	decodeBody(req, &prefs)

	logSaveError("preferences", h.store.SavePreferences(prefs))
	return localJSON(h.store.GetPreferences())
}

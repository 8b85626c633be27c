package api

import "strings"

// Intent is the topic the guest chatbot detected in a message
type Intent string

const (
	IntentAcademic      Intent = "academic"
	IntentStress        Intent = "stress"
	IntentAnxiety       Intent = "anxiety"
	IntentDepression    Intent = "depression"
	IntentMotivation    Intent = "motivation"
	IntentSleep         Intent = "sleep"
	IntentRelationships Intent = "relationships"
	IntentGeneral       Intent = "general"
)

// intentKeywords is checked in order; the first intent with a matching
// keyword wins. Academic comes first so "stressed about exams" is academic.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentAcademic, []string{"study", "exam", "homework", "assignment", "grade"}},
	{IntentStress, []string{"stress", "stressed", "overwhelmed", "pressure", "worried", "tense"}},
	{IntentAnxiety, []string{"anxious", "anxiety", "nervous", "panic"}},
	{IntentDepression, []string{"depressed", "sad", "down", "hopeless", "empty"}},
	{IntentMotivation, []string{"motivate", "motivation", "encourage", "inspire", "goal"}},
	{IntentSleep, []string{"sleep", "insomnia", "tired", "exhausted"}},
	{IntentRelationships, []string{"friend", "relationship", "lonely", "isolated"}},
}

var replyTemplates = map[Intent]string{
	IntentAcademic:      "Academic pressure is tough. Which class or task is causing the most stress?",
	IntentStress:        "I understand you're feeling stressed. Can you tell me what's causing the stress?",
	IntentAnxiety:       "I hear you're feeling anxious. Would you like a short grounding exercise?",
	IntentDepression:    "I'm sorry you're feeling down. What's one small thing that might help you today?",
	IntentMotivation:    "Let's find a small step to get you moving. What's one tiny goal you can try today?",
	IntentSleep:         "Sleep problems can be frustrating. What's your usual bedtime routine?",
	IntentRelationships: "Relationships can be hard. What would you like to talk about regarding your relationships?",
	IntentGeneral:       "I'm here to listen. How are you feeling today?",
}

// copingStrategies covers only the distress intents; others get none
var copingStrategies = map[Intent]string{
	IntentAcademic:   "Break the task into 25-minute focus blocks with a 5-minute break after each one.",
	IntentStress:     "Try a short 4-4-6 breathing exercise: inhale 4, hold 4, exhale 6.",
	IntentAnxiety:    "Naming 5 things you see can help ground you right now.",
	IntentDepression: "Try a 5-minute activity you used to enjoy, even if small.",
}

// ClassifyIntent returns the first intent whose keywords appear in message.
// Matching is case-insensitive substring matching.
func ClassifyIntent(message string) Intent {
	msg := strings.ToLower(message)
	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(msg, kw) {
				return entry.intent
			}
		}
	}
	return IntentGeneral
}

// ChatReply is the canned answer for a guest chat message
type ChatReply struct {
	Intent         Intent
	Reply          string
	CopingStrategy string
}

// ComposeReply classifies message and picks the reply and coping strategy
func ComposeReply(message string) ChatReply {
	intent := ClassifyIntent(message)
	return ChatReply{
		Intent:         intent,
		Reply:          replyTemplates[intent],
		CopingStrategy: copingStrategies[intent],
	}
}

// Text is the reply shown to the user, with the suggestion appended
func (r ChatReply) Text() string {
	if r.CopingStrategy == "" {
		return r.Reply
	}
	return r.Reply + "\n\nHere's a suggestion: " + r.CopingStrategy
}

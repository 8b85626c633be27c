package api

import (
	"strings"
	"testing"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		message string
		want    Intent
	}{
		{"I'm so stressed about exams", IntentAcademic},
		{"My homework is piling up", IntentAcademic},
		{"I feel overwhelmed at work", IntentStress},
		{"I'm WORRIED about tomorrow", IntentStress},
		{"I get nervous before talks", IntentAnxiety},
		{"Having a panic attack", IntentAnxiety},
		{"I feel hopeless", IntentDepression},
		{"I need some motivation", IntentMotivation},
		{"I can't sleep at night", IntentSleep},
		{"I feel lonely", IntentRelationships},
		{"hello there", IntentGeneral},
		{"", IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := ClassifyIntent(tt.message); got != tt.want {
				t.Errorf("ClassifyIntent(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestComposeReply_EveryIntentAnswers(t *testing.T) {
	intents := []Intent{IntentGeneral}
	for _, entry := range intentKeywords {
		intents = append(intents, entry.intent)
	}
	for _, intent := range intents {
		if replyTemplates[intent] == "" {
			t.Errorf("intent %q has no reply template", intent)
		}
	}
}

func TestComposeReply_CopingStrategy(t *testing.T) {
	tests := []struct {
		message    string
		intent     Intent
		wantCoping bool
	}{
		{"I'm so stressed about exams", IntentAcademic, true},
		{"work has me stressed", IntentStress, true},
		{"I feel anxious", IntentAnxiety, true},
		{"I'm sad today", IntentDepression, true},
		{"I need motivation", IntentMotivation, false},
		{"I can't sleep", IntentSleep, false},
		{"I feel lonely", IntentRelationships, false},
		{"hello there", IntentGeneral, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			reply := ComposeReply(tt.message)
			if reply.Intent != tt.intent {
				t.Fatalf("Intent = %q, want %q", reply.Intent, tt.intent)
			}
			if got := reply.CopingStrategy != ""; got != tt.wantCoping {
				t.Errorf("has coping strategy = %v, want %v", got, tt.wantCoping)
			}
			if !tt.wantCoping && reply.Text() != replyTemplates[tt.intent] {
				t.Errorf("Text() = %q, want the bare template", reply.Text())
			}
		})
	}
}

func TestChatReply_Text(t *testing.T) {
	reply := ComposeReply("I'm so stressed about exams")
	text := reply.Text()
	if !strings.HasPrefix(text, replyTemplates[IntentAcademic]) {
		t.Errorf("Text() = %q, should start with the academic template", text)
	}
	if !strings.HasSuffix(text, "\n\nHere's a suggestion: "+copingStrategies[IntentAcademic]) {
		t.Errorf("Text() = %q, should end with the coping suggestion", text)
	}

	bare := ChatReply{Reply: "just this"}
	if bare.Text() != "just this" {
		t.Errorf("Text() without coping = %q", bare.Text())
	}
}

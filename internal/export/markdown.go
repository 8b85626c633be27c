package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/serenity-guest/internal"
)

// MarkdownExporter exports a readable journal of the guest data
type MarkdownExporter struct{}

// Export exports a snapshot to Markdown format
func (e *MarkdownExporter) Export(snapshot *internal.GuestSnapshot, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# Guest %s\n\n", snapshot.GuestID)
	if !snapshot.ExportedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Exported:** %s  \n", snapshot.ExportedAt.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Sessions:** %d  \n", len(snapshot.ChatSessions))
	_, _ = fmt.Fprintf(w, "**Mood logs:** %d  \n", len(snapshot.MoodLogs))
	_, _ = fmt.Fprintf(w, "**Wellness points:** %d (level %d)\n\n",
		snapshot.WellnessPoints.Points, snapshot.WellnessPoints.Level())

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Conversations\n\n")

	for i, session := range snapshot.ChatSessions {
		_, _ = fmt.Fprintf(w, "### %s%s\n\n", sessionKey(session), formatMillis(session.Timestamp))
		for _, msg := range session.Messages {
			_, _ = fmt.Fprintf(w, "**%s:**\n\n%s\n\n", msg.Role, escapeMarkdown(msg.Content))
			if msg.Intent != "" {
				_, _ = fmt.Fprintf(w, "_Intent: %s_\n\n", msg.Intent)
			}
		}
		// Horizontal rule between sessions
		if i < len(snapshot.ChatSessions)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	if len(snapshot.MoodLogs) > 0 {
		_, _ = fmt.Fprintf(w, "## Mood\n\n")
		_, _ = fmt.Fprintf(w, "| When | Mood | Stress | Anxiety | Notes |\n")
		_, _ = fmt.Fprintf(w, "|---|---|---|---|---|\n")
		for _, log := range snapshot.MoodLogs {
			_, _ = fmt.Fprintf(w, "| %s | %d | %d | %d | %s |\n",
				strings.TrimSpace(formatMillis(log.Timestamp)), log.MoodScore, log.StressLevel, log.AnxietyLevel,
				strings.ReplaceAll(log.Notes, "|", "\\|"))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	for _, groupID := range sortedGroups(snapshot) {
		_, _ = fmt.Fprintf(w, "## Peer group %s\n\n", groupID)
		for _, msg := range snapshot.PeerMessages[groupID] {
			_, _ = fmt.Fprintf(w, "- **%s:** %s\n", msg.Role, escapeMarkdown(msg.Content))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	return nil
}

func formatMillis(ms int64) string {
	t := internal.MillisToTime(ms)
	if t.IsZero() {
		return ""
	}
	return " (" + t.UTC().Format(time.RFC3339) + ")"
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			// Escape markdown syntax outside code blocks
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}

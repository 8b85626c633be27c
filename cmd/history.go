package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/serenity-guest/internal"
	"github.com/iksnae/serenity-guest/internal/api"
	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd lists chat sessions, or shows one session's exchanges
var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List chat sessions or show one conversation",
	Long: `Without arguments, list your chat sessions.
With a session id, show the messages exchanged in that conversation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			resp, err := a.client.Get(cmd.Context(), "/chatbot/history/"+args[0], nil)
			if err != nil {
				return userError(err)
			}
			var entries []api.HistoryEntry
			if err := resp.Decode(&entries); err != nil {
				return err
			}
			displayHistory(out, args[0], entries, historyLimit)
			return nil
		}

		resp, err := a.client.Get(cmd.Context(), "/chatbot/sessions", nil)
		if err != nil {
			return userError(err)
		}
		var sessions []internal.ChatSession
		if err := decodeList(resp, "sessions", &sessions); err != nil {
			return err
		}
		displaySessions(out, groupSessions(sessions))
		return nil
	},
}

// groupSessions merges exchanges that share a session id, keeping first-seen order
func groupSessions(exchanges []internal.ChatSession) []internal.ChatSession {
	var grouped []internal.ChatSession
	index := make(map[string]int)
	for _, ex := range exchanges {
		key := ex.SessionID
		if key == "" {
			key = ex.ID
		}
		if i, ok := index[key]; ok {
			grouped[i].Messages = append(grouped[i].Messages, ex.Messages...)
			continue
		}
		index[key] = len(grouped)
		ex.Messages = append([]internal.ChatMessage(nil), ex.Messages...)
		grouped = append(grouped, ex)
	}
	return grouped
}

func displaySessions(out io.Writer, sessions []internal.ChatSession) {
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("No chat sessions yet"))
		return
	}

	_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Found %d session(s)", len(sessions))))
	_, _ = fmt.Fprintln(out)

	// Use tabwriter for aligned columns
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("Session")+"\t"+titleStyle.Render("First message")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Created")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 90))

	for _, session := range sessions {
		id := session.SessionID
		if id == "" {
			id = session.ID
		}

		first := "Untitled"
		if len(session.Messages) > 0 && session.Messages[0].Content != "" {
			first = session.Messages[0].Content
		}
		// Truncate long messages but keep them readable
		if len(first) > 40 {
			first = first[:37] + "..."
		}
		first = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Render(first)

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID(id)),
			first,
			countStyle.Render(strconv.Itoa(len(session.Messages))),
			dateStyle.Render(formatWhen(session.Time())))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	first := sessions[0].SessionID
	if first == "" {
		first = sessions[0].ID
	}
	_, _ = fmt.Fprintln(out, idStyle.Render("Tip: run `serenity-guest history "+first+"` to read a conversation"))
}

func displayHistory(out io.Writer, sessionID string, entries []api.HistoryEntry, limit int) {
	_, _ = fmt.Fprintln(out, headerStyle.Render("Session "+sessionID))
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, sessionMetaStyle.Render("No messages in this session"))
		return
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	_, _ = fmt.Fprintln(out, sessionMetaStyle.Render(fmt.Sprintf("%d exchange(s)", len(entries))))
	_, _ = fmt.Fprintln(out)

	for _, e := range entries {
		when := ""
		if e.CreatedAt != "" {
			when = " " + dateStyle.Render(e.CreatedAt)
		}
		_, _ = fmt.Fprintln(out, userMessageStyle.Render("You:")+when)
		_, _ = fmt.Fprintln(out, messageContentStyle.Render(e.Message))
		if e.Response != "" {
			_, _ = fmt.Fprintln(out, botMessageStyle.Render("Serenity:"))
			_, _ = fmt.Fprintln(out, messageContentStyle.Render(e.Response))
		}
		_, _ = fmt.Fprintln(out)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the last N exchanges (0 = all)")
}

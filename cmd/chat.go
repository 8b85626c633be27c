package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/serenity-guest/internal/api"
	"github.com/spf13/cobra"
)

var chatSessionID string

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a message to the wellness companion",
	Long: `Send a message to the wellness companion.

In guest mode the reply is chosen locally from the topic of your message,
the exchange is saved on this machine and you earn wellness points.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		body := map[string]interface{}{"message": strings.Join(args, " ")}
		if chatSessionID != "" {
			body["session_id"] = chatSessionID
		}

		resp, err := a.client.Post(cmd.Context(), "/chatbot/chat", body)
		if err != nil {
			return userError(err)
		}

		var reply api.ChatResponse
		if err := resp.Decode(&reply); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, botMessageStyle.Render("Serenity:"))
		_, _ = fmt.Fprintln(out, messageContentStyle.Render(reply.Response))
		_, _ = fmt.Fprintln(out)
		meta := fmt.Sprintf("session %s", reply.SessionID)
		if reply.Intent != "" {
			meta = fmt.Sprintf("topic %s, %s", reply.Intent, meta)
		}
		_, _ = fmt.Fprintln(out, sessionMetaStyle.Render(meta))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "Continue an existing session")
}

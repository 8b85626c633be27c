package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/spf13/cobra"
)

var (
	peerGroup string
	peerSeed  string
)

// peerCmd groups the peer support commands
var peerCmd = &cobra.Command{
	Use:   "peer",
	Short: "Read and post peer group messages",
}

var peerSendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Post a message to a peer group",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if peerGroup == "" {
			return fmt.Errorf("--group is required")
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		body := map[string]interface{}{
			"groupId": peerGroup,
			"message": map[string]string{
				"role":    internal.RoleUser,
				"content": strings.Join(args, " "),
			},
		}
		if _, err := a.client.Post(cmd.Context(), "/peer/message", body); err != nil {
			return userError(err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Message posted to group "+peerGroup))
		return nil
	},
}

var peerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the messages of a peer group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if peerGroup == "" {
			return fmt.Errorf("--group is required")
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if peerSeed != "" && a.store.IsGuest() {
			if _, err := a.store.SeedPeerGroup(peerGroup, peerSeed); err != nil {
				internal.LogWarn("Failed to seed group %s: %v", peerGroup, err)
			}
		}

		resp, err := a.client.Get(cmd.Context(), "/peer/messages", url.Values{"groupId": {peerGroup}})
		if err != nil {
			return userError(err)
		}
		var messages []internal.PeerMessage
		if err := decodeList(resp, "messages", &messages); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, headerStyle.Render("Group "+peerGroup))
		if len(messages) == 0 {
			_, _ = fmt.Fprintln(out, sessionMetaStyle.Render("No messages yet"))
			return nil
		}
		for _, m := range messages {
			label := userMessageStyle.Render("You:")
			switch m.Role {
			case internal.RolePeer:
				label = botMessageStyle.Render("Peer:")
			case internal.RoleSystem:
				label = infoStyle.Render("Notice:")
			}
			_, _ = fmt.Fprintf(out, "%s %s\n", label, dateStyle.Render(formatWhen(m.Time())))
			_, _ = fmt.Fprintln(out, messageContentStyle.Render(m.Content))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(peerCmd)
	peerCmd.AddCommand(peerSendCmd, peerListCmd)

	peerCmd.PersistentFlags().StringVarP(&peerGroup, "group", "g", "", "Peer group id")
	peerListCmd.Flags().StringVar(&peerSeed, "seed", "", "Seed an empty guest group with a welcome, using this group name")
}

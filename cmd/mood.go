package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/spf13/cobra"
)

var (
	moodScore    int
	moodStress   int
	moodAnxiety  int
	moodNotes    string
	moodLogLimit int
)

// moodCmd groups the mood tracking commands
var moodCmd = &cobra.Command{
	Use:   "mood",
	Short: "Log and review moods",
}

var moodLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Record how you feel right now",
	Example: `  serenity-guest mood log --mood 6 --stress 4 --anxiety 3
  serenity-guest mood log --mood 8 --notes "Good run this morning"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for name, v := range map[string]int{"mood": moodScore, "stress": moodStress, "anxiety": moodAnxiety} {
			if v < 1 || v > 10 {
				return fmt.Errorf("--%s must be between 1 and 10, got %d", name, v)
			}
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		body := internal.MoodLog{
			MoodScore:    moodScore,
			StressLevel:  moodStress,
			AnxietyLevel: moodAnxiety,
			Notes:        moodNotes,
		}
		if _, err := a.client.Post(cmd.Context(), "/analytics/mood-log", body); err != nil {
			return userError(err)
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Mood logged"))
		return nil
	},
}

var moodListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent mood logs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		query := url.Values{}
		if moodLogLimit > 0 {
			query.Set("limit", strconv.Itoa(moodLogLimit))
		}
		resp, err := a.client.Get(cmd.Context(), "/analytics/mood-logs", query)
		if err != nil {
			return userError(err)
		}

		var logs []internal.MoodLog
		if err := decodeList(resp, "logs", &logs); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(logs) == 0 {
			_, _ = fmt.Fprintln(out, headerStyle.Render("No mood logs yet"))
			return nil
		}
		_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d mood log(s)", len(logs))))
		_, _ = fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("When")+"\t"+titleStyle.Render("Mood")+"\t"+titleStyle.Render("Stress")+"\t"+titleStyle.Render("Anxiety")+"\t"+titleStyle.Render("Notes")+"\t")
		_, _ = fmt.Fprintln(w, strings.Repeat("─", 80))
		for _, l := range logs {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t\n",
				dateStyle.Render(formatWhen(l.Time())),
				countStyle.Render(strconv.Itoa(l.MoodScore)),
				l.StressLevel,
				l.AnxietyLevel,
				l.Notes)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(moodCmd)
	moodCmd.AddCommand(moodLogCmd, moodListCmd)

	moodLogCmd.Flags().IntVar(&moodScore, "mood", 5, "Mood score (1-10)")
	moodLogCmd.Flags().IntVar(&moodStress, "stress", 5, "Stress level (1-10)")
	moodLogCmd.Flags().IntVar(&moodAnxiety, "anxiety", 5, "Anxiety level (1-10)")
	moodLogCmd.Flags().StringVar(&moodNotes, "notes", "", "Free-form notes")

	moodListCmd.Flags().IntVarP(&moodLogLimit, "limit", "n", 30, "Maximum number of logs to show (0 = all)")
}

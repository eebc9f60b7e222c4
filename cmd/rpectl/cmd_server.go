package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/seed"
)

var (
	submitEmail     string
	submitLast4     string
	submitLastName  string
	submitFirstName string
	submitPosition  string
	submitSummer    string
	submitRating    string

	loadAthletes int
	loadWorkers  int
	loadSeed     uint64

	reportCoaches []string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Post one submission to a running server",
	Example: `  rpectl submit --email a@school.edu --last-name Avery --first-name Sam \
    --position WR --rating 7`,
	RunE: runSubmit,
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Post one generated submission per athlete concurrently",
	Long: `Generates a roster and posts today's rating for every athlete using
--workers concurrent requests. Busy (429) responses are counted, other
failures stop the run.`,
	RunE: runLoad,
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Trigger reminder dispatch on a running server",
	RunE:  runRemind,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Trigger coach report dispatch on a running server",
	RunE:  runReport,
}

func init() {
	f := submitCmd.Flags()
	f.StringVar(&submitEmail, "email", "", "athlete email")
	f.StringVar(&submitLast4, "last4", "", "last four digits of the athlete ID")
	f.StringVar(&submitLastName, "last-name", "", "last name")
	f.StringVar(&submitFirstName, "first-name", "", "first name")
	f.StringVar(&submitPosition, "position", "", "position")
	f.StringVar(&submitSummer, "summer-attendance", "", "summer attendance")
	f.StringVar(&submitRating, "rating", "", "intensity level")
	for _, name := range []string{"email", "last-name", "first-name", "position", "rating"} {
		_ = submitCmd.MarkFlagRequired(name)
	}

	loadCmd.Flags().IntVar(&loadAthletes, "athletes", 100, "number of athletes")
	loadCmd.Flags().IntVar(&loadWorkers, "workers", 8, "concurrent requests")
	loadCmd.Flags().Uint64Var(&loadSeed, "seed", uint64(time.Now().UnixNano()), "random seed")

	reportCmd.Flags().StringSliceVar(&reportCoaches, "coach", nil, "recipient email; repeat or comma-separate. Defaults to the server's list")
}

func newClient() *seed.Client {
	return seed.NewClient(serverURL, seed.WithTimeout(timeout), seed.WithWorkers(loadWorkers))
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	resp, err := newClient().Submit(cmd.Context(), model.Submission{
		Identity: model.Identity{
			Email:            submitEmail,
			Last4:            submitLast4,
			LastName:         submitLastName,
			FirstName:        submitFirstName,
			Position:         submitPosition,
			SummerAttendance: submitSummer,
		},
		Intensity: submitRating,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (day %s, new row: %t, overwrote: %t)\n",
		resp.Message, resp.Day, resp.RowInserted, resp.Overwrote)
	return nil
}

func runLoad(cmd *cobra.Command, _ []string) error {
	g := seed.NewGenerator(loadSeed)
	roster := g.Roster(loadAthletes)
	subs := make([]model.Submission, 0, len(roster))
	for _, a := range roster {
		raw, ok := g.Rating(a, 0, 1)
		if !ok {
			continue
		}
		subs = append(subs, model.Submission{Identity: a.Identity, Intensity: raw})
	}

	stats, err := newClient().SubmitAll(cmd.Context(), subs)
	fmt.Fprintf(cmd.OutOrStdout(), "sent %d: %d accepted, %d busy, %d failed in %s\n",
		stats.Sent, stats.Accepted, stats.Busy, stats.Failed, stats.Elapsed.Round(time.Millisecond))
	return err
}

func runRemind(cmd *cobra.Command, _ []string) error {
	res, err := newClient().Reminders(cmd.Context())
	if err != nil {
		return err
	}
	printDispatch(cmd, "reminders", res)
	return nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	res, err := newClient().CoachReports(cmd.Context(), reportCoaches)
	if err != nil {
		return err
	}
	printDispatch(cmd, "coach reports", res)
	return nil
}

func printDispatch(cmd *cobra.Command, what string, res model.DispatchResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sent, %d failed, %d skipped\n", what, res.Sent, res.Failed, res.Skipped)
}

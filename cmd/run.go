package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-engine/internal/enrich"
	"github.com/sells-group/lead-engine/internal/job"
	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/score"
)

var (
	runKeyword  string
	runLocation string
	runMode     string
	runPages    int
	runOutput   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one discovery job and print the leads as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := model.ParseMode(runMode)
		if err != nil {
			return err
		}
		req := model.Request{
			Keyword:  runKeyword,
			Location: runLocation,
			Mode:     mode,
			MaxPages: runPages,
		}

		backends, err := buildBackends(cfg.Search)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dim := color.New(color.Faint)
		controller, err := job.New(job.Config{
			Request:  req,
			Backends: backends,
			MaxPages: cfg.Search.MaxPages,
			Enrich: enrich.Config{
				Workers:           cfg.Enrich.Workers,
				PerRequestTimeout: cfg.Enrich.RequestTimeout(),
			},
			OnProgress: func(message string, pct int) {
				if pct >= 0 {
					dim.Fprintf(os.Stderr, "[%3d%%] %s\n", pct, message)
				} else {
					dim.Fprintf(os.Stderr, "       %s\n", message)
				}
			},
		})
		if err != nil {
			return err
		}

		controller.Run(ctx)
		state := controller.State()

		if state.Status == model.StatusFailed {
			return eris.Errorf("job failed: %s", state.Error)
		}

		out := os.Stdout
		if runOutput != "" {
			f, err := os.Create(runOutput)
			if err != nil {
				return eris.Wrap(err, "creating output file")
			}
			defer f.Close()
			out = f
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state.Leads); err != nil {
			return eris.Wrap(err, "encoding leads")
		}

		printSummary(state, mode)
		return nil
	},
}

func printSummary(state model.JobState, mode model.Mode) {
	headline := color.New(color.FgGreen, color.Bold)
	if state.Status == model.StatusStopped {
		headline = color.New(color.FgYellow, color.Bold)
	}
	headline.Fprintf(os.Stderr, "\n%s: %d leads (%s)\n",
		state.Status, len(state.Leads), state.Message)

	tally := score.Tally(state.Leads, mode)
	fmt.Fprintf(os.Stderr, "  %s %d   %s %d   %s %d\n",
		color.GreenString("strong"), tally[score.Strong],
		color.YellowString("medium"), tally[score.Medium],
		color.RedString("weak"), tally[score.Weak])
}

func init() {
	runCmd.Flags().StringVarP(&runKeyword, "keyword", "k", "", "search keyword (industry, niche, role)")
	runCmd.Flags().StringVarP(&runLocation, "location", "l", "", "target location (required)")
	runCmd.Flags().StringVarP(&runMode, "mode", "m", "business_search", "search mode: profile_search, business_search, listing_search, open_web_search")
	runCmd.Flags().IntVar(&runPages, "pages", 0, "max result pages per query (default from config)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write leads JSON to file instead of stdout")
	runCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(runCmd)
}

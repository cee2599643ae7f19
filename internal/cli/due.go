package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/akson-app/cards/fsrs"
)

func init() {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "Show due and new counts, with a workload forecast",
		Run:   runDue,
	}

	cmd.Flags().StringP("collection", "c", "", "Restrict to one collection")
	cmd.Flags().Int("horizon", 7, "Forecast horizon in days")

	RootCmd.AddCommand(cmd)
}

func runDue(cmd *cobra.Command, args []string) {
	collectionID, _ := cmd.Flags().GetString("collection")
	horizon, _ := cmd.Flags().GetInt("horizon")

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	now := time.Now().UTC()

	// Pull everything due inside the horizon in one query; the items due
	// right now are the subset with due <= now.
	items, err := s.GetDueItems(cmd.Context(), collectionID, now.AddDate(0, 0, horizon), 0)
	if err != nil {
		exitErr("due", err)
	}

	var newCount, dueCount int
	states := make([]fsrs.MemoryState, 0, len(items))
	for _, item := range items {
		states = append(states, item.MemoryState)
		switch {
		case item.State == fsrs.New:
			newCount++
		case item.Due != nil && !item.Due.After(now):
			dueCount++
		}
	}

	fmt.Printf("new: %d\ndue: %d\n", newCount, dueCount)

	workload := fsrs.WorkloadPreview(states, horizon, now)
	if len(workload) == 0 {
		return
	}

	dates := make([]string, 0, len(workload))
	for d := range workload {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	fmt.Println("\nforecast:")
	for _, d := range dates {
		fmt.Printf("  %s  %d\n", d, workload[d])
	}
}

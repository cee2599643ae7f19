package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "logs ITEM_ID",
		Short: "Show the review history of an item",
		Args:  cobra.ExactArgs(1),
		Run:   runLogs,
	}

	RootCmd.AddCommand(cmd)
}

func runLogs(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	// Resolving the item first turns a typo into a not-found error
	// instead of an empty list.
	if _, err := s.GetItem(cmd.Context(), args[0]); err != nil {
		exitErr("logs", err)
	}

	logs, err := s.ListReviewLogs(cmd.Context(), args[0])
	if err != nil {
		exitErr("logs", err)
	}

	b, _ := json.MarshalIndent(logs, "", "  ")
	fmt.Println(string(b))
}

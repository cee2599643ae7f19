package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/akson-app/cards/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add FRONT BACK",
		Short: "Add a note to a collection",
		Args:  cobra.ExactArgs(2),
		Run:   runAdd,
	}

	cmd.Flags().StringP("collection", "c", "", "Collection id (required)")
	cmd.Flags().StringP("tags", "t", "", "Tags (comma-separated)")
	cmd.MarkFlagRequired("collection")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	collectionID, _ := cmd.Flags().GetString("collection")
	tagsStr, _ := cmd.Flags().GetString("tags")

	var tags []string
	if tagsStr != "" {
		for _, t := range strings.Split(tagsStr, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tags = append(tags, t)
			}
		}
	}

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	// Fail on an unknown collection before touching the notes table.
	if _, err := s.GetCollection(cmd.Context(), collectionID); err != nil {
		exitErr("add", err)
	}

	now := time.Now().UTC()
	item, err := s.CreateNote(cmd.Context(), &model.Note{
		CollectionID: collectionID,
		Front:        args[0],
		Back:         args[1],
		Tags:         tags,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		exitErr("add", err)
	}

	b, _ := json.MarshalIndent(item, "", "  ")
	fmt.Println(string(b))
}

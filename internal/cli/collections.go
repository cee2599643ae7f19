package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akson-app/cards/internal/model"
)

func init() {
	collectionsCmd := &cobra.Command{
		Use:   "collections",
		Short: "Manage collections",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Run:   runCollectionsList,
	}

	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionsCreate,
	}
	createCmd.Flags().String("description", "", "Collection description")
	createCmd.Flags().Float64("retention", 0, "Target recall probability (default from config)")
	createCmd.Flags().Int("new-cap", 0, "New items per day (default from config)")
	createCmd.Flags().Int("review-cap", 0, "Reviews per day (default from config)")

	rmCmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a collection and everything in it",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionsRm,
	}

	collectionsCmd.AddCommand(listCmd, createCmd, rmCmd)
	RootCmd.AddCommand(collectionsCmd)
}

func runCollectionsList(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	collections, err := s.ListCollections(cmd.Context())
	if err != nil {
		exitErr("list collections", err)
	}

	b, _ := json.MarshalIndent(collections, "", "  ")
	fmt.Println(string(b))
}

func runCollectionsCreate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	description, _ := cmd.Flags().GetString("description")
	retention, _ := cmd.Flags().GetFloat64("retention")
	newCap, _ := cmd.Flags().GetInt("new-cap")
	reviewCap, _ := cmd.Flags().GetInt("review-cap")

	cc := cfg.Scheduling
	if retention > 0 {
		cc.RequestRetention = retention
	}
	if newCap > 0 {
		cc.DailyNewCap = newCap
	}
	if reviewCap > 0 {
		cc.DailyReviewCap = reviewCap
	}

	now := time.Now().UTC()
	c := &model.Collection{
		Name:        args[0],
		Description: description,
		Config:      cc,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.CreateCollection(cmd.Context(), c); err != nil {
		exitErr("create collection", err)
	}

	b, _ := json.MarshalIndent(c, "", "  ")
	fmt.Println(string(b))
}

func runCollectionsRm(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	if err := s.DeleteCollection(cmd.Context(), args[0]); err != nil {
		exitErr("rm collection", err)
	}
	fmt.Printf(`{"ok":true,"id":%q}`+"\n", args[0])
}

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/akson-app/cards/fsrs"
	"github.com/akson-app/cards/internal/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Start an interactive study session",
		Run:   runStudy,
	}

	cmd.Flags().StringP("collection", "c", "", "Restrict to one collection")
	cmd.Flags().IntP("limit", "l", 0, "Max reviews this sitting (default: daily cap)")

	RootCmd.AddCommand(cmd)
}

func runStudy(cmd *cobra.Command, args []string) {
	collectionID, _ := cmd.Flags().GetString("collection")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	if limit == 0 {
		limit = cfg.SessionLimit
	}

	sess := session.New(s, session.Options{
		CollectionID: collectionID,
		Limit:        limit,
	})

	ok, err := sess.Start(cmd.Context(), time.Now().UTC())
	if err != nil {
		exitErr("start session", err)
	}
	if !ok {
		fmt.Println("Nothing due. Come back later.")
		return
	}

	in := bufio.NewScanner(os.Stdin)
	for {
		item, ok := sess.Current()
		if !ok {
			break
		}

		note, err := s.GetNote(cmd.Context(), item.NoteID)
		if err != nil {
			exitErr("load note", err)
		}

		done, total := sess.Progress()
		fmt.Printf("\n[%d/%d] %s\n", done+1, total, note.Front)
		fmt.Print("(enter to flip, q to quit) ")
		shown := time.Now()

		if !in.Scan() || strings.TrimSpace(in.Text()) == "q" {
			break
		}

		fmt.Printf("  -> %s\n", note.Back)

		rating, quit := promptRating(in)
		if quit {
			break
		}

		if _, err := sess.Answer(cmd.Context(), rating, time.Now().UTC(), time.Since(shown)); err != nil {
			exitErr("answer", err)
		}
	}

	stats := sess.Stats()
	fmt.Printf("\nReviewed %d: %d again, %d hard, %d good, %d easy\n",
		stats.Total, stats.Again, stats.Hard, stats.Good, stats.Easy)
}

// promptRating reads a rating from stdin, reprompting on garbage.
func promptRating(in *bufio.Scanner) (fsrs.Rating, bool) {
	for {
		fmt.Print("rate (1=again 2=hard 3=good 4=easy, q to quit) ")
		if !in.Scan() {
			return 0, true
		}
		switch strings.TrimSpace(strings.ToLower(in.Text())) {
		case "q":
			return 0, true
		case "1", "a", "again":
			return fsrs.Again, false
		case "2", "h", "hard":
			return fsrs.Hard, false
		case "3", "g", "good":
			return fsrs.Good, false
		case "4", "e", "easy":
			return fsrs.Easy, false
		}
	}
}

// Package fsrs implements the FSRS spaced repetition memory model.
//
// fsrs provides a pure Engine that, given an item's memory state, a recall
// rating and the current time, computes the updated memory state and the
// next moment the item should be reviewed.
//
// Basic usage:
//
//	e, err := fsrs.NewEngine(fsrs.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	state := fsrs.NewMemoryState()
//	state, due, err := e.Review(state, fsrs.Good, time.Now())
package fsrs

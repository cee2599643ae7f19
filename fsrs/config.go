package fsrs

import (
	"fmt"
	"time"
)

// Config configures an Engine.
// Zero values produce sensible defaults; see field comments.
type Config struct {
	Weights            *Weights        `json:"weights"`             // nil → DefaultWeights
	RequestRetention   float64         `json:"request_retention"`   // zero → 0.9
	MaximumInterval    int             `json:"maximum_interval"`    // days; zero → 36500
	LearningSteps      []time.Duration `json:"learning_steps"`      // nil → [1m, 10m]
	RelearningSteps    []time.Duration `json:"relearning_steps"`    // nil → [10m]
	GraduatingInterval int             `json:"graduating_interval"` // days; zero → 1
	EasyInterval       int             `json:"easy_interval"`       // days; zero → 4
}

// withDefaults returns a copy of cfg with zero-value fields filled in.
func (c Config) withDefaults() Config {
	if c.Weights == nil {
		w := DefaultWeights()
		c.Weights = &w
	}
	if c.RequestRetention == 0 {
		c.RequestRetention = 0.9
	}
	if c.MaximumInterval == 0 {
		c.MaximumInterval = 36500
	}
	if c.LearningSteps == nil {
		c.LearningSteps = []time.Duration{time.Minute, 10 * time.Minute}
	}
	if c.RelearningSteps == nil {
		c.RelearningSteps = []time.Duration{10 * time.Minute}
	}
	if c.GraduatingInterval == 0 {
		c.GraduatingInterval = 1
	}
	if c.EasyInterval == 0 {
		c.EasyInterval = 4
	}
	return c
}

// validate rejects configs the state machine cannot run on.
// Called on the post-default config, so empty (non-nil) step lists
// are the caller explicitly asking for no steps, which is invalid.
func (c Config) validate() error {
	if c.RequestRetention <= 0 || c.RequestRetention >= 1 {
		return fmt.Errorf("%w: request retention %f outside (0, 1)", ErrInvalidConfig, c.RequestRetention)
	}
	if c.MaximumInterval < 1 {
		return fmt.Errorf("%w: maximum interval %d must be at least 1 day", ErrInvalidConfig, c.MaximumInterval)
	}
	if len(c.LearningSteps) == 0 {
		return fmt.Errorf("%w: learning steps empty", ErrInvalidConfig)
	}
	if len(c.RelearningSteps) == 0 {
		return fmt.Errorf("%w: relearning steps empty", ErrInvalidConfig)
	}
	for i, s := range c.LearningSteps {
		if s <= 0 {
			return fmt.Errorf("%w: learning step %d is %v", ErrInvalidConfig, i, s)
		}
	}
	for i, s := range c.RelearningSteps {
		if s <= 0 {
			return fmt.Errorf("%w: relearning step %d is %v", ErrInvalidConfig, i, s)
		}
	}
	if c.GraduatingInterval < 1 {
		return fmt.Errorf("%w: graduating interval %d must be at least 1 day", ErrInvalidConfig, c.GraduatingInterval)
	}
	if c.EasyInterval < 1 {
		return fmt.Errorf("%w: easy interval %d must be at least 1 day", ErrInvalidConfig, c.EasyInterval)
	}
	return nil
}

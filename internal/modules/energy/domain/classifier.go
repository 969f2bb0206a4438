package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	MinLevel = 0
	MaxLevel = 100
)

// Banding holds the inclusive band edges. It is the single source for the
// classifier, check-in feedback and the negotiation trigger.
type Banding struct {
	SurvivalMax  float64
	ExpansionMin float64
}

func DefaultBanding() Banding {
	return Banding{SurvivalMax: 30, ExpansionMin: 70}
}

func (b Banding) Validate() error {
	if b.SurvivalMax < MinLevel || b.ExpansionMin > MaxLevel || b.SurvivalMax >= b.ExpansionMin {
		return fmt.Errorf("invalid banding %v/%v", b.SurvivalMax, b.ExpansionMin)
	}
	return nil
}

const (
	tagMotivated = "motivated"
	tagSick      = "sick"
	tagBadNight  = "bad night"
)

type Classifier struct {
	banding Banding
}

func NewClassifier(banding Banding) Classifier {
	if banding.Validate() != nil {
		banding = DefaultBanding()
	}
	return Classifier{banding: banding}
}

func (c Classifier) Banding() Banding {
	return c.banding
}

// Classify never fails: readings that are not finite or fall outside
// [0,100] resolve to maintenance.
func (c Classifier) Classify(level float64, tags ...string) Mode {
	if math.IsNaN(level) || math.IsInf(level, 0) || level < MinLevel || level > MaxLevel {
		return Maintenance
	}
	mode := c.band(level)
	switch {
	case mode == Survival && hasTag(tags, tagMotivated):
		return Maintenance
	case mode == Expansion && (hasTag(tags, tagSick) || hasTag(tags, tagBadNight)):
		return Maintenance
	}
	return mode
}

func (c Classifier) band(level float64) Mode {
	switch {
	case level <= c.banding.SurvivalMax:
		return Survival
	case level >= c.banding.ExpansionMin:
		return Expansion
	default:
		return Maintenance
	}
}

// NeedsNegotiation reports whether a resolved mode should ask the user to
// confirm the easier plan.
func NeedsNegotiation(mode Mode) bool {
	return mode == Survival
}

// NormalizeTag lowercases a tag and treats '_' and '-' as spaces.
func NormalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.NewReplacer("_", " ", "-", " ").Replace(tag)
	return strings.Join(strings.Fields(tag), " ")
}

func hasTag(tags []string, marker string) bool {
	for _, tag := range tags {
		if NormalizeTag(tag) == marker {
			return true
		}
	}
	return false
}

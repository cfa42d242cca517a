package utils

import (
	"fmt"

	"github.com/julianstephens/hardlog/internal/constants"
)

// ChallengeDay renders a streak as progress through the challenge, e.g.
// "Day 3 of 75".
func ChallengeDay(streak int) string {
	switch {
	case streak <= 0:
		return "Not started"
	case streak > constants.ChallengeDays:
		return fmt.Sprintf("Day %d (challenge complete)", streak)
	default:
		return fmt.Sprintf("Day %d of %d", streak, constants.ChallengeDays)
	}
}

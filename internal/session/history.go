package session

import (
	"context"
	"fmt"

	"github.com/julianstephens/hardlog/internal/models"
)

// DaySummary is one day of the challenge as shown by history views.
type DaySummary struct {
	Date      string
	Completed int
	Total     int
}

// Done reports whether every tracked habit was completed that day.
func (d DaySummary) Done() bool {
	return d.Total > 0 && d.Completed == d.Total
}

// Streak counts the user's daily logs. It does not check that the days are
// contiguous.
func (c *Controller) Streak(ctx context.Context) (int, error) {
	userID, _, err := c.snapshot()
	if err != nil {
		return 0, err
	}
	logs, err := c.repo.ListDailyLogs(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list daily logs: %w", err)
	}
	return len(logs), nil
}

// History summarizes up to limit of the most recent days, newest first. A
// limit of zero or less returns every day.
func (c *Controller) History(ctx context.Context, limit int) ([]DaySummary, error) {
	userID, _, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	logs, err := c.repo.ListDailyLogs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily logs: %w", err)
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}

	summaries := make([]DaySummary, 0, len(logs))
	for _, l := range logs {
		entries, err := c.repo.GetHabitEntries(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load entries for %s: %w", l.Date, err)
		}
		summaries = append(summaries, summarize(l, entries))
	}
	return summaries, nil
}

func summarize(l models.DailyLog, entries []models.HabitEntry) DaySummary {
	d := DaySummary{Date: l.Date, Total: len(entries)}
	for _, e := range entries {
		if e.Completed {
			d.Completed++
		}
	}
	return d
}

// CurrentUser loads the signed-in user's profile.
func (c *Controller) CurrentUser(ctx context.Context) (models.User, error) {
	userID, _, err := c.snapshot()
	if err != nil {
		return models.User{}, err
	}
	u, err := c.repo.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

// Rename updates the signed-in user's display name.
func (c *Controller) Rename(ctx context.Context, name string) (models.User, error) {
	userID, _, err := c.snapshot()
	if err != nil {
		return models.User{}, err
	}
	u, err := c.repo.UpdateUserName(ctx, userID, name)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to rename user: %w", err)
	}
	return u, nil
}

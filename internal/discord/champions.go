package discord

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"workout-thread-bot/internal/dates"
	"workout-thread-bot/internal/scanner"
)

// PostWeeklyChampions counts photo posters across the previous week's day
// threads and announces the ranking in the workout channel. Ties share a
// rank.
func (c *Client) PostWeeklyChampions(ctx context.Context, sc *scanner.Scanner, now time.Time) error {
	prevStart := dates.WeekStart(now).AddDate(0, 0, -7)
	prevEnd := prevStart.AddDate(0, 0, 6)

	acc, err := sc.Scan(ctx, prevStart, prevEnd)
	if err != nil {
		return fmt.Errorf("failed to scan previous week: %w", err)
	}

	header := fmt.Sprintf("📅 **지난주 운동왕 (%s ~ %s)** 🏆\n\n",
		prevStart.Format("01월 02일"), prevEnd.Format("01월 02일"))

	counts := make(map[string]int)
	for _, users := range acc.Credits {
		for userID := range users {
			counts[userID]++
		}
	}
	if len(counts) == 0 {
		msg := header + "😢 아무도 운동을 하지 않았어요... 이번 주에는 더 열심히 해봐요! 💪"
		if _, err := c.session.ChannelMessageSend(c.cfg.ChannelID, msg); err != nil {
			return fmt.Errorf("failed to send champions message: %w", err)
		}
		return nil
	}

	// group names by count so ties share a rank line
	byCount := make(map[int][]string)
	for userID, n := range counts {
		byCount[n] = append(byCount[n], acc.Names[userID])
	}
	var order []int
	for n := range byCount {
		order = append(order, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(order)))

	rankEmojis := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	b.WriteString(header)
	for rank, n := range order {
		emoji := "💪"
		if rank < len(rankEmojis) {
			emoji = rankEmojis[rank]
		}
		names := byCount[n]
		sort.Strings(names)
		fmt.Fprintf(&b, "%s **%s**: %d회\n", emoji, strings.Join(names, ", "), n)
	}

	if _, err := c.session.ChannelMessageSend(c.cfg.ChannelID, b.String()); err != nil {
		return fmt.Errorf("failed to send champions message: %w", err)
	}
	c.logger.Info("Weekly champions posted",
		"week_start", prevStart.Format("2006-01-02"), "participants", len(counts))
	return nil
}

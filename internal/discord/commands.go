package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"workout-thread-bot/internal/config"
	"workout-thread-bot/internal/dates"
	"workout-thread-bot/internal/metrics"
	"workout-thread-bot/internal/report"
	"workout-thread-bot/internal/scanner"
)

const (
	commandPrefix = "!"
	embedGreen    = 0x00ff80
	embedBlue     = 0x0080ff
)

// liveCaptureWindow is how many trailing days of thread labels the live
// photo handler matches against. Photos in older threads are recovered by
// reconciliation instead.
const liveCaptureWindow = 7

func (c *Client) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	if strings.HasPrefix(m.Content, commandPrefix) {
		c.dispatchCommand(m)
		return
	}
	c.captureWorkoutPhoto(m)
}

// captureWorkoutPhoto credits a photo posted live in a day thread. The
// thread name decides which date gets the credit, not the posting time, so
// late-night uploads land on the day the thread belongs to.
func (c *Client) captureWorkoutPhoto(m *discordgo.MessageCreate) {
	if len(m.Attachments) == 0 {
		return
	}

	ch, err := c.session.State.Channel(m.ChannelID)
	if err != nil {
		ch, err = c.session.Channel(m.ChannelID)
		if err != nil {
			return
		}
	}
	if !ch.IsThread() || ch.ParentID != c.cfg.ChannelID {
		return
	}

	hasImage := false
	for _, a := range m.Attachments {
		if scanner.IsImageFilename(a.Filename) {
			hasImage = true
			break
		}
	}
	if !hasImage {
		return
	}

	now := time.Now().In(c.loc)
	window := dates.Range(now.AddDate(0, 0, -(liveCaptureWindow-1)), now)
	date, ok := dates.MatchThreadDate(ch.Name, window)
	if !ok {
		return
	}

	userName := c.memberName(m.Author.ID, m.Author.Username)
	if err := c.db.UpsertAttendance(m.Author.ID, userName, date); err != nil {
		c.logger.Error("Failed to record live attendance",
			"user", userName, "date", date.Format("2006-01-02"), "error", err)
		c.SendAlert(AlertError, "commands.captureWorkoutPhoto",
			fmt.Sprintf("운동 기록 저장 실패: %v", err),
			fmt.Sprintf("%s (ID: %s)", userName, m.Author.ID))
		return
	}

	emoji := weekdayEmojis[dates.MondayIndex(now)]
	if err := c.session.MessageReactionAdd(m.ChannelID, m.ID, emoji); err != nil {
		c.logger.Warn("Failed to add reaction", "error", err)
	}
	c.logger.Info("Workout photo recorded",
		"user", userName, "date", date.Format("2006-01-02"), "thread", ch.Name)
}

func (c *Client) dispatchCommand(m *discordgo.MessageCreate) {
	fields := strings.Fields(m.Content)
	if len(fields) == 0 {
		return
	}

	now := time.Now().In(c.loc)
	userInfo := fmt.Sprintf("%s (ID: %s)", c.memberName(m.Author.ID, m.Author.Username), m.Author.ID)

	switch fields[0] {
	case "!요약":
		c.runCommand(metrics.CommandSummary, m, userInfo, func() error {
			return c.handleSummary(m, now)
		})
	case "!통계":
		c.runCommand(metrics.CommandStats, m, userInfo, func() error {
			return c.handleStats(m, now)
		})
	case "!추세":
		c.runCommand(metrics.CommandTrend, m, userInfo, func() error {
			return c.handleTrend(m, now)
		})
	case "!동기화":
		c.handleSync(m, fields[1:], now, userInfo)
	}
}

// runCommand wraps a read-only command with the uniform failure contract:
// errors go to the operator channel, the user sees the busy reply.
func (c *Client) runCommand(name string, m *discordgo.MessageCreate, userInfo string, fn func() error) {
	c.logger.Info("Command received", "command", name, "user", userInfo)
	if err := fn(); err != nil {
		c.logger.Error("Command failed", "command", name, "error", err)
		c.SendAlert(AlertError, "commands."+name, err.Error(), userInfo)
		c.reply(m, busyReply)
		metrics.CommandsTotal.WithLabelValues(name, metrics.ResultFailure).Inc()
		return
	}
	metrics.CommandsTotal.WithLabelValues(name, metrics.ResultSuccess).Inc()
}

func (c *Client) handleSummary(m *discordgo.MessageCreate, now time.Time) error {
	summaries, err := c.reports.MemberSummaries(now)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		return fmt.Errorf("운동 기록 없음")
	}

	today := dates.Day(now)
	embed := &discordgo.MessageEmbed{
		Title:       "📊 멤버별 운동 요약",
		Description: "모든 운동 멤버들의 요약 정보입니다.",
		Color:       embedGreen,
		Footer:      &discordgo.MessageEmbedFooter{Text: c.footer()},
	}
	for i, ms := range summaries {
		status := "💤"
		if ms.CurrentStreak > 0 {
			status = "🔥"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("%d. %s %s", i+1, ms.UserName, status),
			Value: fmt.Sprintf(
				"**총 운동**: %d일/%d일 (%.1f%%)\n"+
					"**현재 연속**: %d일 | **최장 연속**: %d일\n"+
					"**이번 주**: %d일/%d일 (%.1f%%)\n"+
					"**마지막 운동**: %s",
				ms.TotalWorkoutDays, ms.TotalDays, ms.WorkoutRate,
				ms.CurrentStreak, ms.MaxStreak,
				ms.ThisWeekDays, ms.ThisWeekElapsed, ms.ThisWeekRate,
				lastWorkoutLabel(ms.LastWorkout, today)),
			Inline: false,
		})
	}
	return c.replyEmbed(m, embed)
}

func lastWorkoutLabel(last *time.Time, today time.Time) string {
	if last == nil {
		return "기록 없음"
	}
	switch days := int(today.Sub(dates.Day(*last)).Hours() / 24); days {
	case 0:
		return "오늘"
	case 1:
		return "어제"
	default:
		return fmt.Sprintf("%d일 전", days)
	}
}

func (c *Client) handleStats(m *discordgo.MessageCreate, now time.Time) error {
	months, err := c.reports.MonthlySummary(now)
	if err != nil {
		return err
	}
	weeks, err := c.reports.WeeklySummary(now)
	if err != nil {
		return err
	}

	monthly := &discordgo.MessageEmbed{
		Title:       "📊 월별 운동 통계 (최근 3개월)",
		Description: "최근 3개월간의 월별 운동 통계입니다.",
		Color:       embedGreen,
		Footer:      &discordgo.MessageEmbedFooter{Text: c.footer()},
	}
	for _, ms := range months {
		var lines []string
		for _, row := range ms.Rows {
			if row.WorkoutDays == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("**%s**: %d일 (%.1f%%)", row.UserName, row.WorkoutDays, row.WorkoutRate))
		}
		if len(lines) == 0 {
			continue
		}
		monthly.Fields = append(monthly.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("📅 %d년 %d월", ms.Year, ms.Month),
			Value:  strings.Join(lines, "\n"),
			Inline: false,
		})
	}
	if len(monthly.Fields) == 0 {
		monthly.Fields = append(monthly.Fields, &discordgo.MessageEmbedField{
			Name:  "📅 통계 없음",
			Value: "최근 3개월간 운동 기록이 없습니다.",
		})
	}

	weekly := &discordgo.MessageEmbed{
		Title:       "📊 주간 운동 통계 (지난주부터 4주)",
		Description: "지난주부터 4주간의 주간 운동 통계입니다.",
		Color:       embedBlue,
		Footer:      &discordgo.MessageEmbedFooter{Text: c.footer()},
	}
	for _, ws := range weeks {
		var lines []string
		for _, row := range ws.Rows {
			if row.WorkoutDays == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("**%s**: %d일 (%.1f%%)", row.UserName, row.WorkoutDays, row.WorkoutRate))
		}
		if len(lines) == 0 {
			continue
		}
		weekly.Fields = append(weekly.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("📅 %d년 %d주차 (%s ~ %s)",
				ws.Year, ws.WeekNumber,
				ws.WeekStart.Format("01/02"), ws.WeekEnd.Format("01/02")),
			Value:  strings.Join(lines, "\n"),
			Inline: false,
		})
	}
	if len(weekly.Fields) == 0 {
		weekly.Fields = append(weekly.Fields, &discordgo.MessageEmbedField{
			Name:  "📅 통계 없음",
			Value: "지난주부터 4주간 운동 기록이 없습니다.",
		})
	}

	if err := c.replyEmbed(m, monthly); err != nil {
		return err
	}
	_, err = c.session.ChannelMessageSendEmbed(m.ChannelID, weekly)
	if err != nil {
		return fmt.Errorf("failed to send weekly stats: %w", err)
	}
	return nil
}

var trendLabels = map[string]struct{ icon, desc string }{
	report.TrendUp:   {"📈", "상승세"},
	report.TrendDown: {"📉", "하락세"},
	report.TrendFlat: {"➡️", "유지"},
}

var overallTrendLabels = map[string]struct{ icon, desc string }{
	report.TrendUp:   {"📈", "전체적으로 상승"},
	report.TrendDown: {"📉", "전체적으로 하락"},
	report.TrendFlat: {"➡️", "전체적으로 유지"},
}

func (c *Client) handleTrend(m *discordgo.MessageCreate, now time.Time) error {
	rep, err := c.reports.Trend(now)
	if err != nil {
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📊 운동 추세 분석 (지난주부터 4주)",
		Description: "지난주부터 4주간의 운동 데이터를 기반으로 한 추세 분석입니다.",
		Color:       embedGreen,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "📅 분석 기준: 지난주부터 4주 데이터 (이번 주 제외) | " + c.footer(),
		},
	}

	if len(rep.Members) == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📊 데이터 없음",
			Value: "지난주부터 4주간 운동 기록이 없어 추세를 분석할 수 없습니다.",
		})
		return c.replyEmbed(m, embed)
	}

	for _, mt := range rep.Members {
		if mt.Insufficient {
			w := mt.Weeks[0]
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: fmt.Sprintf("👤 %s ⚠️ 데이터 부족", mt.UserName),
				Value: fmt.Sprintf("**운동 기록**: %d일 (%.0f%%)\n**분석**: 1주 데이터만 있어 추세 분석 불가",
					w.WorkoutDays, w.WorkoutRate),
			})
			continue
		}

		points := make([]string, 0, len(mt.Weeks))
		for _, w := range mt.Weeks {
			points = append(points, fmt.Sprintf("%d일(%.0f%%)", w.WorkoutDays, w.WorkoutRate))
		}
		label := trendLabels[mt.Direction]
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("👤 %s %s %s", mt.UserName, label.icon, label.desc),
			Value: fmt.Sprintf(
				"**주간 변화**: %s\n**운동율 변화**: %.0f%% → %.0f%% (%+.0f%%p)\n**평균 운동**: %.1f일/주",
				strings.Join(points, " → "),
				mt.FirstRate, mt.LastRate, mt.Delta, mt.AvgWorkoutDays),
		})
	}

	if rep.Overall != nil {
		label := overallTrendLabels[rep.Overall.Direction]
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "🏆 전체 추세 " + label.icon,
			Value: fmt.Sprintf("**%s**: %.0f%% → %.0f%% (%+.0f%%p)",
				label.desc, rep.Overall.AvgFirstRate, rep.Overall.AvgLastRate, rep.Overall.Delta),
		})
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📊 추세 분석 불가",
			Value: "충분한 주간 데이터가 없어 전체 추세를 분석할 수 없습니다.",
		})
	}
	return c.replyEmbed(m, embed)
}

func (c *Client) handleSync(m *discordgo.MessageCreate, args []string, now time.Time, userInfo string) {
	requested := 7
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			c.reply(m, "⚠️ 일수는 숫자로 입력해주세요. 예: `!동기화 7`")
			metrics.CommandsTotal.WithLabelValues(metrics.CommandSync, metrics.ResultFailure).Inc()
			return
		}
		requested = n
	}

	// validate before any gateway or store work happens
	days, err := config.ResolveSyncDays(requested)
	if err != nil {
		c.reply(m, fmt.Sprintf("⚠️ 동기화 일수는 %d~%d일 사이여야 합니다.", config.MinSyncDays, config.MaxSyncDays))
		metrics.CommandsTotal.WithLabelValues(metrics.CommandSync, metrics.ResultFailure).Inc()
		return
	}

	c.logger.Info("Sync command received", "requested", requested, "days", days, "user", userInfo)
	c.reply(m, fmt.Sprintf("🔍 최근 %d일간의 운동 기록을 분석합니다... 잠시만 기다려주세요.", days))

	rep, err := c.syncer.Run(context.Background(), days, now)
	if err != nil {
		c.logger.Error("Sync run failed", "error", err)
		c.SendAlert(AlertError, "commands.handleSync", err.Error(), userInfo)
		c.reply(m, busyReply)
		metrics.CommandsTotal.WithLabelValues(metrics.CommandSync, metrics.ResultFailure).Inc()
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "🔄 동기화 결과",
		Description: fmt.Sprintf("%s ~ %s (%d일)",
			rep.Start.Format("2006-01-02"), rep.End.Format("2006-01-02"), rep.Days),
		Color:  embedGreen,
		Footer: &discordgo.MessageEmbedFooter{Text: c.footer()},
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "📋 수집 결과",
				Value: fmt.Sprintf("스레드 %d개, 사진 기록 %d건\n저장 성공 %d건, 실패 %d건",
					rep.ThreadsFound, rep.PhotosFound, rep.CreditsSaved, rep.CreditsFailed),
			},
			{
				Name: "🔁 통계 재계산",
				Value: fmt.Sprintf("주간 %s | 월별 %s | 멤버 %s",
					okMark(rep.WeeklyOK), okMark(rep.MonthlyOK), okMark(rep.StatsOK)),
			},
		},
	}
	if !rep.Success() {
		embed.Color = 0xffa500
		c.SendAlert(AlertWarning, "commands.handleSync",
			fmt.Sprintf("동기화 부분 실패: 저장 %d건, 실패 %d건", rep.CreditsSaved, rep.CreditsFailed),
			userInfo)
	}

	if err := c.replyEmbed(m, embed); err != nil {
		c.logger.Error("Failed to send sync result", "error", err)
		c.SendAlert(AlertError, "commands.handleSync", err.Error(), userInfo)
		metrics.CommandsTotal.WithLabelValues(metrics.CommandSync, metrics.ResultFailure).Inc()
		return
	}
	metrics.CommandsTotal.WithLabelValues(metrics.CommandSync, metrics.ResultSuccess).Inc()
}

func okMark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

func (c *Client) reply(m *discordgo.MessageCreate, content string) {
	_, err := c.session.ChannelMessageSendReply(m.ChannelID, content, m.Reference())
	if err != nil {
		c.logger.Error("Failed to send reply", "error", err)
	}
}

func (c *Client) replyEmbed(m *discordgo.MessageCreate, embed *discordgo.MessageEmbed) error {
	_, err := c.session.ChannelMessageSendEmbedReply(m.ChannelID, embed, m.Reference())
	if err != nil {
		return fmt.Errorf("failed to send embed reply: %w", err)
	}
	return nil
}

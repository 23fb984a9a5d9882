package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"workout-thread-bot/internal/metrics"
)

// Alert levels
const (
	AlertError   = "Error"
	AlertWarning = "Warning"
	AlertInfo    = "Info"
	AlertSuccess = "Success"
)

var alertColors = map[string]int{
	AlertError:   0xff0000,
	AlertWarning: 0xffa500,
	AlertInfo:    0x00ff80,
	AlertSuccess: 0x00ff00,
}

var alertMetricLevels = map[string]string{
	AlertError:   metrics.AlertError,
	AlertWarning: metrics.AlertWarning,
	AlertInfo:    metrics.AlertInfo,
	AlertSuccess: metrics.AlertSuccess,
}

// SendAlert posts a structured embed to the operator alert channel. Alerts
// are best-effort: a failed alert is logged, never escalated, since the
// alert path must not create new failures.
func (c *Client) SendAlert(level, location, message, userInfo string) {
	color, ok := alertColors[level]
	if !ok {
		color = 0x808080
	}

	now := time.Now().In(c.loc)
	embed := &discordgo.MessageEmbed{
		Title:       "🤖 " + level,
		Description: "**위치**: " + location + "\n**메시지**: " + message,
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: c.footer()},
	}
	if userInfo != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "👤 사용자",
			Value:  userInfo,
			Inline: true,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "🕐 발생 시간",
		Value:  now.Format("2006-01-02 15:04:05"),
		Inline: true,
	})

	if _, err := c.session.ChannelMessageSendEmbed(c.cfg.AlertChannelID, embed); err != nil {
		c.logger.Error("Failed to send operator alert",
			"level", level, "location", location, "error", err)
		return
	}
	if lv, ok := alertMetricLevels[level]; ok {
		metrics.AlertsSentTotal.WithLabelValues(lv).Inc()
	}
	c.logger.Info("Operator alert sent", "level", level, "location", location)
}

func (c *Client) footer() string {
	now := time.Now().In(c.loc)
	return "🦕 근육몬 봇 v" + botVersion + " | 조회 시간: " + now.Format("2006-01-02 15:04:05")
}

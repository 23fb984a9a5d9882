// Package discord wraps the gateway session: it implements the scanner's
// thread Gateway, dispatches the chat commands, posts the scheduled
// messages and routes operator alerts. All user-facing text is Korean to
// match the community the bot serves.
package discord

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"workout-thread-bot/internal/config"
	"workout-thread-bot/internal/database"
	"workout-thread-bot/internal/dates"
	"workout-thread-bot/internal/report"
	"workout-thread-bot/internal/syncer"
)

const botVersion = "2.0.0"

// busyReply is the uniform reply for any internal failure. Users see the
// same message whether the bot is slow or broken; operators get the real
// error on the alert channel.
const busyReply = "⏳ 처리 중입니다..."

// weekdayEmojis decorates the daily thread announcement, Monday first
var weekdayEmojis = [7]string{"💪", "🔥", "💯", "⚡", "🚀", "🌟", "✨"}

// Client is the bot's connection to the chat platform
type Client struct {
	session *discordgo.Session
	cfg     *config.Config
	loc     *time.Location
	db      *database.DB
	reports *report.Service
	syncer  *syncer.Syncer
	logger  *slog.Logger

	mu        sync.Mutex
	nameCache map[string]string
}

// New builds the client and registers its event handlers. The session is
// not opened until Start. The syncer is bound separately because it scans
// through this client's Gateway implementation.
func New(cfg *config.Config, loc *time.Location, db *database.DB, reports *report.Service) (*Client, error) {
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMessageReactions

	c := &Client{
		session:   session,
		cfg:       cfg,
		loc:       loc,
		db:        db,
		reports:   reports,
		logger:    slog.Default(),
		nameCache: make(map[string]string),
	}
	session.AddHandler(c.onReady)
	session.AddHandler(c.onMessageCreate)
	session.AddHandler(c.onInteraction)
	return c, nil
}

// BindSyncer attaches the reconciliation runner. Must be called before
// Start; the sync command depends on it.
func (c *Client) BindSyncer(sync *syncer.Syncer) {
	c.syncer = sync
}

// Start opens the gateway connection
func (c *Client) Start() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

// Stop closes the gateway connection
func (c *Client) Stop() error {
	return c.session.Close()
}

func (c *Client) onReady(s *discordgo.Session, r *discordgo.Ready) {
	c.logger.Info("Discord session ready",
		"user", r.User.Username, "guilds", len(r.Guilds))

	if err := c.registerSlashCommands(); err != nil {
		c.logger.Error("Failed to register slash commands", "error", err)
		c.SendAlert(AlertError, "client.onReady", fmt.Sprintf("슬래시 명령어 등록 실패: %v", err), "")
	}

	c.sendStartupNotification()
}

func (c *Client) registerSlashCommands() error {
	_, err := c.session.ApplicationCommandCreate(c.session.State.User.ID, c.cfg.GuildID,
		&discordgo.ApplicationCommand{
			Name:        "도움",
			Description: "근육몬 봇의 사용법을 알려드립니다",
		})
	if err != nil {
		return fmt.Errorf("failed to register help command: %w", err)
	}
	return nil
}

// sendStartupNotification tells operators the bot is up and what it runs
func (c *Client) sendStartupNotification() {
	desc := fmt.Sprintf(
		"근육몬 봇 v%s 시작됨\n"+
			"**명령어**: !요약, !통계, !추세, !동기화 [일수], /도움\n"+
			"**스케줄**: 일일 스레드 생성, 월요일 주간 운동왕 발표",
		botVersion)
	c.SendAlert(AlertInfo, "client.Start", desc, "")
}

// memberName resolves a user's display name: server nickname, then global
// display name, then account name. Results are cached for the session's
// lifetime; names drift slowly and every persisted record refreshes them
// anyway.
func (c *Client) memberName(userID, fallback string) string {
	c.mu.Lock()
	if name, ok := c.nameCache[userID]; ok {
		c.mu.Unlock()
		return name
	}
	c.mu.Unlock()

	name := fallback
	member, err := c.session.GuildMember(c.cfg.GuildID, userID)
	if err == nil {
		switch {
		case member.Nick != "":
			name = member.Nick
		case member.User != nil && member.User.GlobalName != "":
			name = member.User.GlobalName
		case member.User != nil && member.User.Username != "":
			name = member.User.Username
		}
	} else {
		c.logger.Debug("Failed to fetch guild member", "user_id", userID, "error", err)
	}

	c.mu.Lock()
	c.nameCache[userID] = name
	c.mu.Unlock()
	return name
}

// CreateDailyThread creates today's workout thread unless a thread with
// today's label already exists among the channel's active threads.
func (c *Client) CreateDailyThread(now time.Time) error {
	label := dates.ThreadLabel(now)

	active, err := c.session.GuildThreadsActive(c.cfg.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list active threads: %w", err)
	}
	for _, t := range active.Threads {
		if t.ParentID == c.cfg.ChannelID && t.Name == label {
			c.logger.Info("Daily thread already exists", "thread", label)
			return nil
		}
	}

	emoji := weekdayEmojis[dates.MondayIndex(now)]
	msg, err := c.session.ChannelMessageSend(c.cfg.ChannelID, label+" "+emoji)
	if err != nil {
		return fmt.Errorf("failed to send daily thread anchor: %w", err)
	}

	thread, err := c.session.MessageThreadStartComplex(c.cfg.ChannelID, msg.ID,
		&discordgo.ThreadStart{
			Name:                label,
			AutoArchiveDuration: 10080, // one week
		})
	if err != nil {
		return fmt.Errorf("failed to create daily thread: %w", err)
	}

	intro := "💪 이 스레드에서 오늘의 운동을 기록해보세요!"
	if dates.MondayIndex(now) == 6 {
		intro += "\n\n한 주 마무리! 다음 주도 화이팅! 🎉"
	}
	if _, err := c.session.ChannelMessageSend(thread.ID, intro); err != nil {
		return fmt.Errorf("failed to send thread intro: %w", err)
	}

	c.logger.Info("Daily thread created", "thread", label)
	return nil
}

package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"workout-thread-bot/internal/scanner"
)

const historyPageSize = 100

// ActiveThreads lists the workout channel's unarchived threads
func (c *Client) ActiveThreads(ctx context.Context) ([]scanner.Thread, error) {
	list, err := c.session.GuildThreadsActive(c.cfg.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list active threads: %w", err)
	}

	var out []scanner.Thread
	for _, ch := range list.Threads {
		if ch.ParentID != c.cfg.ChannelID {
			continue
		}
		out = append(out, c.toThread(ch))
	}
	return out, nil
}

// ArchivedThreads lists one page of the channel's archived threads, newest
// first. A zero before time fetches the most recent page.
func (c *Client) ArchivedThreads(ctx context.Context, private bool, before time.Time, limit int) ([]scanner.Thread, error) {
	var cursor *time.Time
	if !before.IsZero() {
		cursor = &before
	}

	var list *discordgo.ThreadsList
	var err error
	if private {
		list, err = c.session.ThreadsPrivateArchived(c.cfg.ChannelID, cursor, limit, discordgo.WithContext(ctx))
	} else {
		list, err = c.session.ThreadsArchived(c.cfg.ChannelID, cursor, limit, discordgo.WithContext(ctx))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list archived threads (private=%t): %w", private, err)
	}

	out := make([]scanner.Thread, 0, len(list.Threads))
	for _, ch := range list.Threads {
		out = append(out, c.toThread(ch))
	}
	return out, nil
}

// ThreadHistory fetches a thread's full message history, paging backward
// until exhausted.
func (c *Client) ThreadHistory(ctx context.Context, threadID string) ([]scanner.Message, error) {
	var out []scanner.Message
	beforeID := ""
	for {
		msgs, err := c.session.ChannelMessages(threadID, historyPageSize, beforeID, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch thread history: %w", err)
		}
		if len(msgs) == 0 {
			break
		}

		for _, m := range msgs {
			if m.Author == nil {
				continue
			}
			sm := scanner.Message{
				AuthorID:    m.Author.ID,
				AuthorIsBot: m.Author.Bot,
			}
			if !m.Author.Bot {
				sm.AuthorName = c.memberName(m.Author.ID, m.Author.Username)
			}
			for _, a := range m.Attachments {
				sm.Attachments = append(sm.Attachments, scanner.Attachment{Filename: a.Filename})
			}
			out = append(out, sm)
		}

		beforeID = msgs[len(msgs)-1].ID
		if len(msgs) < historyPageSize {
			break
		}
	}
	return out, nil
}

// IsPermissionError reports whether err is the platform refusing access,
// as opposed to a transient failure.
func (c *Client) IsPermissionError(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden {
		return true
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
			return true
		}
	}
	return false
}

func (c *Client) toThread(ch *discordgo.Channel) scanner.Thread {
	t := scanner.Thread{ID: ch.ID, Name: ch.Name}
	if created, err := discordgo.SnowflakeTimestamp(ch.ID); err == nil {
		t.CreatedAt = created.In(c.loc)
	}
	return t
}

package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"workout-thread-bot/internal/config"
	"workout-thread-bot/internal/metrics"
)

func (c *Client) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.ApplicationCommandData().Name != "도움" {
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{c.helpEmbed()},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.logger.Error("Failed to respond to help command", "error", err)
		metrics.CommandsTotal.WithLabelValues(metrics.CommandHelp, metrics.ResultFailure).Inc()
		return
	}
	metrics.CommandsTotal.WithLabelValues(metrics.CommandHelp, metrics.ResultSuccess).Inc()
}

func (c *Client) helpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🦕 근육몬 봇 사용법",
		Description: "운동 기록 관리를 도와주는 봇입니다!",
		Color:       embedGreen,
		Footer:      &discordgo.MessageEmbedFooter{Text: c.footer()},
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "📝 기본 명령어",
				Value: fmt.Sprintf(
					"`!요약` - 멤버별 운동 요약 정보\n"+
						"`!통계` - 월별/주간 운동 통계\n"+
						"`!추세` - 운동 추세 분석\n"+
						"`!동기화 [일수]` - 운동 스레드 사진 업로드 현황 분석 (기본: 7일, 최대: %d일)\n"+
						"`/도움` - 이 도움말", config.MaxSyncDays),
			},
			{
				Name: "📊 !요약",
				Value: "누적 운동 일수와 운동율, 현재/최장 연속 운동 기록, " +
					"이번 주 운동 진행률을 보여줍니다.",
			},
			{
				Name: "📈 !통계",
				Value: "최근 3개월 월별 통계와 지난주부터 4주간의 주간 통계를 " +
					"보여줍니다.",
			},
			{
				Name: "📊 !추세",
				Value: "지난주부터 4주간의 개인별 운동율 변화와 전체 그룹 평균 " +
					"추세를 분석합니다.",
			},
			{
				Name: "🔄 !동기화",
				Value: "일별 운동 스레드를 다시 읽어 놓친 사진 기록을 복구하고 " +
					"모든 통계를 재계산합니다.",
			},
			{
				Name: "🤖 자동화 기능",
				Value: "매일 아침 오늘의 운동 스레드를 생성하고, " +
					"매주 월요일 지난주 운동왕을 발표합니다.",
			},
		},
	}
}

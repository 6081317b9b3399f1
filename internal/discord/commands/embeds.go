package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/stafflens/stafflens/internal/app"
	"github.com/stafflens/stafflens/pkg/store"
)

const (
	colorBlue  = 0x5865F2
	colorGreen = 0x2ECC71
)

// sessionsEmbed lists the currently running interviews.
func sessionsEmbed(infos []app.SessionInfo) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "🎙️ Active Interviews",
		Color:     colorBlue,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	for _, info := range infos {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: info.ApplicantName,
			Value: fmt.Sprintf("Channel: <#%s>\nRunning: %s\nQuestions: %d",
				info.ChannelID,
				time.Since(info.StartedAt).Truncate(time.Second),
				info.Questions,
			),
			Inline: true,
		})
	}
	return embed
}

// historyEmbed lists recent interviews, one inline field per row.
func historyEmbed(summaries []store.Summary) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "📋 Recent Interviews",
		Color:     colorBlue,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	for _, sum := range summaries {
		score := "N/A"
		mark := "⏳"
		if sum.Analyzed {
			score = fmt.Sprintf("%d", sum.FitScore)
			if sum.Recommended {
				mark = "✅"
			} else {
				mark = "❌"
			}
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("#%d %s", sum.ID, sum.ApplicantName),
			Value: fmt.Sprintf("Score: **%s**/100 %s\nDate: %s\nChannel: #%s",
				score, mark,
				sum.StartedAt.Format("2006-01-02 15:04"),
				sum.ChannelName,
			),
			Inline: true,
		})
	}
	return embed
}

// detailEmbed shows one interview with its analysis highlights, if analyzed.
func detailEmbed(iv *store.Interview, analysis *store.Analysis) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Interview #%d", iv.ID),
		Color:     colorBlue,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Applicant", Value: iv.ApplicantName, Inline: true},
		},
	}

	if analysis != nil {
		recommended := "❌ No"
		if analysis.Recommended {
			recommended = "✅ Yes"
		}
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{
				Name: "Fit Score", Value: fmt.Sprintf("%d/100", analysis.FitScore), Inline: true,
			},
			&discordgo.MessageEmbedField{
				Name: "Recommended", Value: recommended, Inline: true,
			},
		)
		if len(analysis.Strengths) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Key Strengths", Value: bullets(analysis.Strengths, 3),
			})
		}
		if len(analysis.Concerns) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Concerns", Value: bullets(analysis.Concerns, 3),
			})
		}
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Analysis", Value: "Not analyzed yet.", Inline: true,
		})
	}

	if iv.Transcript != "" {
		preview := iv.Transcript
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Transcript Preview", Value: "```" + preview + "```",
		})
	}
	return embed
}

// statsEmbed summarises the guild's interview history.
func statsEmbed(st *store.Stats, activeSessions int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "🤖 StaffLens Status",
		Color:     colorGreen,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Active Sessions", Value: fmt.Sprintf("%d", activeSessions), Inline: true},
			{Name: "Total Interviews", Value: fmt.Sprintf("%d", st.TotalInterviews), Inline: true},
			{Name: "Analyzed", Value: fmt.Sprintf("%d", st.AnalyzedCount), Inline: true},
			{Name: "Recommended", Value: fmt.Sprintf("%d", st.RecommendedCount), Inline: true},
			{Name: "Avg Fit Score", Value: fmt.Sprintf("%.1f", st.AverageFitScore), Inline: true},
		},
	}
}

func bullets(items []string, max int) string {
	if len(items) > max {
		items = items[:max]
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "\n")
}

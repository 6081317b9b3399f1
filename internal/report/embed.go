// Package report turns a finished interview into its durable artefacts: the
// persisted record, the analysis, and the Discord report embed posted for
// staff review.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/stafflens/stafflens/internal/analysis"
)

// Embed colours per recommendation tier.
const (
	colorGreen   = 0x2ECC71
	colorGold    = 0xF1C40F
	colorOrange  = 0xE67E22
	colorRed     = 0xE74C3C
	colorDarkRed = 0x992D22
	colorGrey    = 0x99AAB5
	colorBlue    = 0x5865F2
)

// tierDisplay maps recommendation tiers to a headline and embed colour.
var tierDisplay = map[string]struct {
	label string
	color int
}{
	"STRONG_HIRE": {"🟢 STRONG HIRE", colorGreen},
	"HIRE":        {"✅ HIRE", colorGreen},
	"LEAN_HIRE":   {"🟡 LEAN HIRE", colorGold},
	"LEAN_NO":     {"🟠 LEAN NO", colorOrange},
	"NO_HIRE":     {"❌ NO HIRE", colorRed},
	"STRONG_NO":   {"🔴 STRONG NO", colorDarkRed},
}

// traitEmoji decorates the per-dimension score lines.
var traitEmoji = map[string]string{
	"communication_clarity": "💬",
	"problem_solving":       "🧩",
	"confidence":            "💪",
	"emotional_regulation":  "🧘",
	"cultural_fit":          "🤝",
}

const transcriptPreviewLimit = 400

// ReportEmbed builds the staff-review embed for one analysed interview.
func ReportEmbed(applicantName, applicantID string, r *analysis.Result, transcriptPreview string, fitThreshold int) *discordgo.MessageEmbed {
	disp, ok := tierDisplay[r.Recommendation]
	if !ok {
		disp.label, disp.color = "⚠️ NEEDS REVIEW", colorGrey
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📋 Interview Report: " + applicantName,
		Description: "**" + disp.label + "**",
		Color:       disp.color,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Author:      &discordgo.MessageEmbedAuthor{Name: "Applicant ID: " + applicantID},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("StaffLens Analysis • Threshold: %d", fitThreshold),
		},
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "🎯 Fit Score",
		Value: fmt.Sprintf("**%d**/100\n%s", r.FitScore, scoreBar(r.FitScore, 100, 20)),
	})

	if len(r.Scores) > 0 {
		names := make([]string, 0, len(r.Scores))
		for name := range r.Scores {
			names = append(names, name)
		}
		sort.Strings(names)

		lines := make([]string, 0, len(names))
		for _, name := range names {
			emoji, ok := traitEmoji[name]
			if !ok {
				emoji = "📊"
			}
			lines = append(lines, fmt.Sprintf("%s **%s:** %d/10", emoji, titleCase(name), r.Scores[name]))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "📊 Trait Scores",
			Value:  strings.Join(lines, "\n"),
			Inline: true,
		})
	}

	if len(r.Strengths) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "💪 Key Strengths",
			Value:  bulletList(r.Strengths, 5),
			Inline: true,
		})
	}
	if len(r.Concerns) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "⚠️ Concerns",
			Value:  bulletList(r.Concerns, 5),
			Inline: true,
		})
	}
	if len(r.RedFlags) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🚩 Red Flags",
			Value: bulletList(r.RedFlags, len(r.RedFlags)),
		})
	}
	if r.PsychologicalProfile != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🧠 Psychological Profile",
			Value: truncate(r.PsychologicalProfile, 1024),
		})
	}
	if r.CultureAlignment != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🏠 Culture Alignment",
			Value: truncate(r.CultureAlignment, 1024),
		})
	}
	if len(r.EvidenceQuotes.Positive) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "💬 Positive Quotes",
			Value: quoteList(r.EvidenceQuotes.Positive, 2),
		})
	}
	if len(r.EvidenceQuotes.Negative) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "💬 Concerning Quotes",
			Value: quoteList(r.EvidenceQuotes.Negative, 2),
		})
	}

	if r.Summary != "" || r.RecommendationReasoning != "" {
		text := r.Summary
		if r.RecommendationReasoning != "" {
			text += "\n\n**Reasoning:** " + r.RecommendationReasoning
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📝 Summary",
			Value: truncate(strings.TrimSpace(text), 1024),
		})
	}

	if transcriptPreview != "" {
		preview := transcriptPreview
		if len(preview) > transcriptPreviewLimit {
			preview = preview[:transcriptPreviewLimit] + "..."
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📜 Transcript Preview",
			Value: "```" + preview + "```",
		})
	}

	return embed
}

// StartEmbed announces a new interview session in the report channel.
func StartEmbed(applicantName, applicantID, channelName string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎙️ Interview Session Started",
		Description: fmt.Sprintf("Recording interview with **%s**", applicantName),
		Color:       colorBlue,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: channelName, Inline: true},
			{Name: "Applicant ID", Value: applicantID, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "StaffLens • Recording in progress"},
	}
}

// scoreBar renders a colour-coded progress bar of the given length.
func scoreBar(score, total, length int) string {
	if score < 0 {
		score = 0
	}
	if score > total {
		score = total
	}
	filled := score * length / total

	fill := "🟥"
	switch {
	case score >= 80:
		fill = "🟩"
	case score >= 60:
		fill = "🟨"
	case score >= 40:
		fill = "🟧"
	}
	return strings.Repeat(fill, filled) + strings.Repeat("⬜", length-filled)
}

func bulletList(items []string, max int) string {
	if len(items) > max {
		items = items[:max]
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "\n")
}

func quoteList(quotes []string, max int) string {
	if len(quotes) > max {
		quotes = quotes[:max]
	}
	lines := make([]string, len(quotes))
	for i, q := range quotes {
		lines[i] = `> "` + q + `"`
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// titleCase turns a snake_case trait key into a display label.
func titleCase(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

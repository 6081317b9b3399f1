// Package commands implements the /interview slash command group for staff
// review of live and past interviews.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/stafflens/stafflens/internal/app"
	"github.com/stafflens/stafflens/internal/discord"
	"github.com/stafflens/stafflens/internal/report"
	"github.com/stafflens/stafflens/pkg/store"
)

const (
	// commandTimeout bounds store and analysis calls made from handlers.
	commandTimeout = 30 * time.Second

	// defaultHistoryLimit is how many rows /interview history shows without an
	// explicit limit.
	defaultHistoryLimit = 10

	// inlineTranscriptLimit is the largest transcript sent in a message body;
	// longer ones are attached as a file.
	inlineTranscriptLimit = 1900

	// fitThreshold is the review bar shown in re-generated report footers.
	fitThreshold = 70
)

// InterviewCommands holds the dependencies for the /interview command group.
type InterviewCommands struct {
	sessions *app.SessionManager
	store    store.Store
	analyzer report.Analyzer
	perms    *discord.PermissionChecker
	guildID  string
}

// NewInterviewCommands creates the command group and registers its handlers
// with the bot's router.
func NewInterviewCommands(bot *discord.Bot, sessions *app.SessionManager, st store.Store, analyzer report.Analyzer) *InterviewCommands {
	ic := &InterviewCommands{
		sessions: sessions,
		store:    st,
		analyzer: analyzer,
		perms:    bot.Permissions(),
		guildID:  bot.GuildID(),
	}
	ic.Register(bot.Router())
	return ic
}

// Register registers the /interview command group with the router.
func (ic *InterviewCommands) Register(router *discord.CommandRouter) {
	def := ic.Definition()
	router.RegisterCommand("interview", def, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		discord.RespondEphemeral(s, i, "Please use a subcommand, e.g. `/interview sessions`.")
	})
	router.RegisterHandler("interview/end", ic.handleEnd)
	router.RegisterHandler("interview/sessions", ic.handleSessions)
	router.RegisterHandler("interview/history", ic.handleHistory)
	router.RegisterHandler("interview/show", ic.handleShow)
	router.RegisterHandler("interview/transcript", ic.handleTranscript)
	router.RegisterHandler("interview/reanalyze", ic.handleReanalyze)
	router.RegisterHandler("interview/stats", ic.handleStats)
}

// Definition returns the ApplicationCommand definition for Discord.
func (ic *InterviewCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "interview",
		Description: "Manage and review applicant interviews",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "end",
				Description: "End the interview in a voice channel and produce its report",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "channel",
						Description:  "Voice channel (defaults to your current one)",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice},
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "sessions",
				Description: "List active interview sessions",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "history",
				Description: "Show recent interviews",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "limit",
						Description: "How many to show (default 10)",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "show",
				Description: "Show one interview's details",
				Options:     []*discordgo.ApplicationCommandOption{idOption()},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "transcript",
				Description: "Fetch an interview's full transcript",
				Options:     []*discordgo.ApplicationCommandOption{idOption()},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reanalyze",
				Description: "Re-run the analysis on a past interview",
				Options:     []*discordgo.ApplicationCommandOption{idOption()},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stats",
				Description: "Show aggregate interview statistics",
			},
		},
	}
}

func idOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "id",
		Description: "Interview ID",
		Required:    true,
	}
}

// handleEnd handles /interview end.
func (ic *InterviewCommands) handleEnd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !ic.perms.IsStaff(i) {
		discord.RespondEphemeral(s, i, "You need the staff role to end interviews.")
		return
	}

	channelID := optChannelID(i)
	if channelID == "" {
		vs, err := s.State.VoiceState(ic.guildID, interactionUserID(i))
		if err != nil || vs == nil || vs.ChannelID == "" {
			discord.RespondEphemeral(s, i, "Specify a channel or join the interview's voice channel.")
			return
		}
		channelID = vs.ChannelID
	}

	if !ic.sessions.Active(channelID) {
		discord.RespondEphemeral(s, i, "No active interview in that channel.")
		return
	}

	// Ending speaks nothing further but finalizing may take a while.
	discord.DeferReply(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := ic.sessions.End(ctx, channelID); err != nil {
		discord.FollowUp(s, i, fmt.Sprintf("Failed to end interview: %v", err))
		return
	}
	discord.FollowUp(s, i, "Interview ended. The report will appear in the report channel shortly.")
}

// handleSessions handles /interview sessions.
func (ic *InterviewCommands) handleSessions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !ic.perms.IsStaff(i) {
		discord.RespondEphemeral(s, i, "You need the staff role to view sessions.")
		return
	}

	infos := ic.sessions.Sessions()
	if len(infos) == 0 {
		discord.RespondEphemeral(s, i, "No interviews are currently running.")
		return
	}
	discord.RespondEmbed(s, i, sessionsEmbed(infos))
}

// handleHistory handles /interview history.
func (ic *InterviewCommands) handleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !ic.perms.IsStaff(i) {
		discord.RespondEphemeral(s, i, "You need the staff role to view history.")
		return
	}

	limit := int(optInt(i, "limit"))
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	summaries, err := ic.store.Recent(ctx, guildID(i), limit)
	if err != nil {
		discord.RespondError(s, i, fmt.Errorf("fetch history: %w", err))
		return
	}
	if len(summaries) == 0 {
		discord.RespondEphemeral(s, i, "📋 No interview history found.")
		return
	}
	discord.RespondEmbed(s, i, historyEmbed(summaries))
}

// handleShow handles /interview show.
func (ic *InterviewCommands) handleShow(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !ic.perms.IsStaff(i) {
		discord.RespondEphemeral(s, i, "You need the staff role to view interviews.")
		return
	}

	id := optInt(i, "id")
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	iv, analysis, err := ic.store.Interview(ctx, id)
	if err != nil {
		respondLookupError(s, i, id, err)
		return
	}
	discord.RespondEmbed(s, i, detailEmbed(iv, analysis))
}

// handleTranscript handles /interview transcript.
func (ic *InterviewCommands) handleTranscript(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !ic.perms.IsStaff(i) {
		discord.RespondEphemeral(s, i, "You need the staff role to fetch transcripts.")
		return
	}

	id := optInt(i, "id")
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	iv, _, err := ic.store.Interview(ctx, id)
	if err != nil {
		respondLookupError(s, i, id, err)
		return
	}

	if len(iv.Transcript) > inlineTranscriptLimit {
		discord.DeferReply(s, i)
		discord.FollowUpFile(s, i,
			fmt.Sprintf("📄 Transcript for interview #%d:", id),
			fmt.Sprintf("transcript_%d.txt", id),
			[]byte(iv.Transcript),
		)
		return
	}
	discord.RespondEphemeral(s, i,
		fmt.Sprintf("📄 **Transcript for interview #%d:**\n```%s```", id, iv.Transcript))
}

// handleReanalyze handles /interview reanalyze.
func (ic *InterviewCommands) handleReanalyze(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !ic.perms.IsStaff(i) {
		discord.RespondEphemeral(s, i, "You need the staff role to re-run analyses.")
		return
	}

	id := optInt(i, "id")
	discord.DeferReply(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), 2*commandTimeout)
	defer cancel()

	iv, _, err := ic.store.Interview(ctx, id)
	if err != nil {
		discord.FollowUp(s, i, fmt.Sprintf("❌ Interview #%d not found.", id))
		return
	}
	if strings.TrimSpace(iv.Transcript) == "" {
		discord.FollowUp(s, i, "❌ No transcript available for this interview.")
		return
	}

	result, err := ic.analyzer.Analyze(ctx, iv.Transcript)
	if err != nil {
		discord.FollowUp(s, i, fmt.Sprintf("❌ Analysis failed: %v", err))
		return
	}

	if err := ic.store.SaveAnalysis(ctx, store.Analysis{
		InterviewID:    id,
		FitScore:       result.FitScore,
		Recommended:    result.Recommended,
		Recommendation: result.Recommendation,
		CategoryScores: result.Scores,
		Strengths:      result.Strengths,
		Concerns:       result.Concerns,
		RedFlags:       result.RedFlags,
		Summary:        result.Summary,
		Raw:            result.Raw,
	}); err != nil {
		discord.FollowUp(s, i, fmt.Sprintf("⚠️ Analysis done but saving failed: %v", err))
	}

	embed := report.ReportEmbed(iv.ApplicantName, iv.ApplicantID, result, iv.Transcript, fitThreshold)
	discord.FollowUpEmbed(s, i, embed)
}

// handleStats handles /interview stats.
func (ic *InterviewCommands) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !ic.perms.IsStaff(i) {
		discord.RespondEphemeral(s, i, "You need the staff role to view stats.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	st, err := ic.store.Stats(ctx, guildID(i))
	if err != nil {
		discord.RespondError(s, i, fmt.Errorf("fetch stats: %w", err))
		return
	}
	discord.RespondEmbed(s, i, statsEmbed(st, len(ic.sessions.Sessions())))
}

func respondLookupError(s *discordgo.Session, i *discordgo.InteractionCreate, id int64, err error) {
	if errors.Is(err, store.ErrNotFound) {
		discord.RespondEphemeral(s, i, fmt.Sprintf("❌ Interview #%d not found.", id))
		return
	}
	discord.RespondError(s, i, err)
}

// interactionUserID extracts the user ID from an interaction, handling both
// guild (Member) and DM (User) contexts.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func guildID(i *discordgo.InteractionCreate) string {
	return i.GuildID
}

// subOptions returns the options of the invoked subcommand.
func subOptions(i *discordgo.InteractionCreate) []*discordgo.ApplicationCommandInteractionDataOption {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return nil
	}
	return data.Options[0].Options
}

func optInt(i *discordgo.InteractionCreate, name string) int64 {
	for _, opt := range subOptions(i) {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionInteger {
			return opt.IntValue()
		}
	}
	return 0
}

func optChannelID(i *discordgo.InteractionCreate) string {
	for _, opt := range subOptions(i) {
		if opt.Name == "channel" && opt.Type == discordgo.ApplicationCommandOptionChannel {
			if v, ok := opt.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}

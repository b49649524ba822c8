package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	apperrors "brainrot-market-backend/internal/common/errors"
	giveawaymodels "brainrot-market-backend/internal/features/giveaway/models"
	"brainrot-market-backend/internal/utils/parse"
)

func giveawayCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "giveaway",
		Description: "Run prize giveaways",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "start",
				Description: "Start a giveaway in this channel",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "prize",
						Description: "What is being given away",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "winners",
						Description: "Number of winners",
						Required:    true,
						MinValue:    float64Ptr(1),
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "duration",
						Description: "How long it runs, like 30m or 2h",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "end",
				Description: "End the current giveaway now",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "message_id",
						Description: "Announcement message, defaults to the latest here",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reroll",
				Description: "Reroll winners of the last ended giveaway",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "message_id",
						Description: "Announcement message, defaults to the latest here",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "rig",
				Description: "End the current giveaway with a chosen winner",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionUser,
						Name:        "winner",
						Description: "The user who must win",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "message_id",
						Description: "Announcement message, defaults to the latest here",
					},
				},
			},
		},
	}
}

func (b *Bot) handleGiveawayCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.isAdmin(i) {
		b.respondEphemeral(s, i, "You need Manage Server permission for giveaway commands.")
		return
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]

	switch sub.Name {
	case "start":
		b.handleGiveawayStart(s, i, sub)
	case "end":
		b.handleGiveawayEnd(s, i, sub)
	case "reroll":
		b.handleGiveawayReroll(s, i, sub)
	case "rig":
		b.handleGiveawayRig(s, i, sub)
	}
}

func (b *Bot) handleGiveawayStart(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(sub.Options)

	prize := opts["prize"].StringValue()
	winners := int(opts["winners"].IntValue())

	duration, err := parse.Duration(opts["duration"].StringValue())
	if err != nil {
		b.respondEphemeral(s, i, "I could not read that duration. Try 30m, 2h or 1d.")
		return
	}
	if duration < giveawaymodels.MinDuration {
		b.respondEphemeral(s, i, "Giveaways must run for at least one minute.")
		return
	}

	// Post the announcement first: its message ID becomes the giveaway's
	// correlation key.
	b.respondWith(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "🎉 Giveaway!",
			Description: fmt.Sprintf("**Prize:** %s\n**Winners:** %d\n**Duration:** %s", prize, winners, duration),
			Color:       0x5865F2,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Join",
						Style:    discordgo.PrimaryButton,
						CustomID: joinButtonID,
						Emoji:    &discordgo.ComponentEmoji{Name: "🎉"},
					},
				},
			},
		},
	})

	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to fetch giveaway announcement message")
		return
	}

	_, err = b.giveaways.Create(context.Background(), &giveawaymodels.GiveawayCreate{
		ServerID:     i.GuildID,
		ChannelID:    i.ChannelID,
		MessageID:    msg.ID,
		Prize:        prize,
		WinnersCount: winners,
		Duration:     duration,
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to persist giveaway")
		s.ChannelMessageEdit(i.ChannelID, msg.ID, "The giveaway could not be started, sorry.")
		return
	}
}

func (b *Bot) handleJoinButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if userID == "" || i.Message == nil {
		return
	}

	ctx := context.Background()
	giveaway, err := b.giveaways.GetByMessageID(ctx, i.Message.ID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	added, err := b.giveaways.AddParticipant(ctx, giveaway.ID, userID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	if !added {
		b.respondEphemeral(s, i, "You are already entered in this giveaway.")
		return
	}
	b.respondEphemeral(s, i, "You are in. Good luck! 🎉")
}

func (b *Bot) handleGiveawayEnd(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	giveaway, err := b.resolveGiveaway(i, sub, true)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	result, err := b.giveaways.End(context.Background(), giveaway.ID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	b.respond(s, i, resultAnnouncement(result))
}

func (b *Bot) handleGiveawayReroll(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	giveaway, err := b.resolveGiveaway(i, sub, false)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	result, err := b.giveaways.Reroll(context.Background(), giveaway.ID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	b.respond(s, i, "🔁 Rerolled! "+resultAnnouncement(result))
}

func (b *Bot) handleGiveawayRig(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(sub.Options)
	winner := opts["winner"].UserValue(s)
	if winner == nil {
		b.respondEphemeral(s, i, "I could not resolve that user.")
		return
	}

	giveaway, err := b.resolveGiveaway(i, sub, true)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	result, err := b.giveaways.EndWithWinner(context.Background(), giveaway.ID, winner.ID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	b.respond(s, i, resultAnnouncement(result))
}

// resolveGiveaway finds the targeted giveaway: the given announcement
// message if one was named, otherwise the newest giveaway in the command's
// channel, active or ended depending on what the operation needs.
func (b *Bot) resolveGiveaway(i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption, activeOnly bool) (*giveawaymodels.Giveaway, error) {
	if opt, ok := optionMap(sub.Options)["message_id"]; ok {
		return b.giveaways.GetByMessageID(context.Background(), opt.StringValue())
	}

	giveaways, err := b.giveaways.GetAllForServer(context.Background(), i.GuildID, activeOnly)
	if err != nil {
		return nil, err
	}

	for _, g := range giveaways {
		if g.ChannelID != i.ChannelID {
			continue
		}
		if !activeOnly && !g.Ended {
			continue
		}
		return g, nil
	}

	return nil, apperrors.New(apperrors.ErrCodeGiveawayNotFound, "no matching giveaway in this channel")
}

// GiveawayEnded announces a timer-driven ending in the giveaway's channel.
// Implements the scheduler's EndNotifier.
func (b *Bot) GiveawayEnded(_ context.Context, result *giveawaymodels.GiveawayResult) {
	_, err := b.session.ChannelMessageSend(result.ChannelID, resultAnnouncement(result))
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("giveaway_id", result.ID).
			Str("channel_id", result.ChannelID).
			Msg("Failed to announce giveaway result")
	}
}

func resultAnnouncement(result *giveawaymodels.GiveawayResult) string {
	if len(result.Winners) == 0 {
		return fmt.Sprintf("🎉 The giveaway for **%s** ended with no entries, so there is no winner.", result.Prize)
	}

	mentions := make([]string, len(result.Winners))
	for n, id := range result.Winners {
		mentions[n] = "<@" + id + ">"
	}

	return fmt.Sprintf("🎉 Congratulations %s! You won **%s**!", strings.Join(mentions, ", "), result.Prize)
}

func float64Ptr(v float64) *float64 {
	return &v
}

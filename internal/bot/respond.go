package bot

import (
	"github.com/bwmarrin/discordgo"

	apperrors "brainrot-market-backend/internal/common/errors"
)

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	b.respondWith(s, i, &discordgo.InteractionResponseData{Content: content})
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	b.respondWith(s, i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) respondWith(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to respond to interaction")
	}
}

// respondError maps an AppError to a user-facing ephemeral message;
// internal errors get a generic line and a log entry.
func (b *Bot) respondError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.IsInternal() {
		b.logger.Error().Err(err).Msg("Command failed")
		b.respondEphemeral(s, i, "Something went wrong, try again later.")
		return
	}

	var msg string
	switch appErr.Code {
	case apperrors.ErrCodeGiveawayNotFound:
		msg = "No such giveaway."
	case apperrors.ErrCodeGiveawayEnded:
		msg = "That giveaway has already ended."
	case apperrors.ErrCodeGiveawayNotEnded:
		msg = "That giveaway has not ended yet."
	case apperrors.ErrCodeGiveawayClosed:
		msg = "That giveaway is closed to new entries."
	case apperrors.ErrCodeBrainrotNotFound:
		msg = "No such brainrot."
	case apperrors.ErrCodeForbidden:
		msg = "You are not allowed to do that."
	default:
		msg = appErr.Message
	}

	b.respondEphemeral(s, i, msg)
}

// optionMap flattens subcommand options by name.
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

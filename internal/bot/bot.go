// Package bot hosts the Discord slash-command surface. Handlers translate
// interactions into service calls and AppError codes into ephemeral replies.
package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"brainrot-market-backend/internal/common/config"
	brainrotservice "brainrot-market-backend/internal/features/brainrot/service"
	giveawayservice "brainrot-market-backend/internal/features/giveaway/service"
	pricingservice "brainrot-market-backend/internal/features/pricing/service"
)

const joinButtonID = "giveaway_join"

type Bot struct {
	session   *discordgo.Session
	cfg       *config.Config
	giveaways giveawayservice.GiveawayService
	scheduler *giveawayservice.Scheduler
	brainrots brainrotservice.BrainrotService
	oracle    pricingservice.PriceOracle
	logger    zerolog.Logger

	adminIDs map[string]struct{}
}

func New(
	cfg *config.Config,
	giveaways giveawayservice.GiveawayService,
	scheduler *giveawayservice.Scheduler,
	brainrots brainrotservice.BrainrotService,
	oracle pricingservice.PriceOracle,
	logger zerolog.Logger,
) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	admins := make(map[string]struct{}, len(cfg.Discord.AdminIDs))
	for _, id := range cfg.Discord.AdminIDs {
		admins[id] = struct{}{}
	}

	b := &Bot{
		session:   session,
		cfg:       cfg,
		giveaways: giveaways,
		scheduler: scheduler,
		brainrots: brainrots,
		oracle:    oracle,
		logger:    logger,
		adminIDs:  admins,
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteractionCreate)

	return b, nil
}

// Start opens the gateway connection. Commands are registered from onReady.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info().
		Str("username", event.User.Username).
		Str("user_id", event.User.ID).
		Msg("Discord bot connected")

	if err := b.registerCommands(s, event.User.ID); err != nil {
		b.logger.Error().Err(err).Msg("Failed to register slash commands")
	}
}

func (b *Bot) registerCommands(s *discordgo.Session, appID string) error {
	commands := []*discordgo.ApplicationCommand{
		giveawayCommand(),
		brainrotCommand(),
	}

	// Guild-scoped registration propagates instantly; empty guild ID
	// registers globally.
	_, err := s.ApplicationCommandBulkOverwrite(appID, b.cfg.Discord.GuildID, commands)
	if err != nil {
		return fmt.Errorf("failed to overwrite commands: %w", err)
	}

	b.logger.Info().
		Int("count", len(commands)).
		Str("guild_id", b.cfg.Discord.GuildID).
		Msg("Slash commands registered")
	return nil
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case "giveaway":
			b.handleGiveawayCommand(s, i)
		case "brainrot":
			b.handleBrainrotCommand(s, i)
		}
	case discordgo.InteractionMessageComponent:
		if i.MessageComponentData().CustomID == joinButtonID {
			b.handleJoinButton(s, i)
		}
	}
}

// isAdmin accepts members with Manage Server or anyone on the configured
// admin list.
func (b *Bot) isAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	if _, ok := b.adminIDs[i.Member.User.ID]; ok {
		return true
	}
	return i.Member.Permissions&discordgo.PermissionManageServer != 0
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

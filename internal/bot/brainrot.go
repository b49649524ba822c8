package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	apperrors "brainrot-market-backend/internal/common/errors"
	brainrotmodels "brainrot-market-backend/internal/features/brainrot/models"
	pricingservice "brainrot-market-backend/internal/features/pricing/service"
)

func brainrotCommand() *discordgo.ApplicationCommand {
	rarityChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(brainrotmodels.Rarities))
	for _, r := range brainrotmodels.Rarities {
		rarityChoices = append(rarityChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(r),
			Value: string(r),
		})
	}

	mutationChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(brainrotmodels.Mutations))
	for _, m := range brainrotmodels.Mutations {
		mutationChoices = append(mutationChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(m),
			Value: string(m),
		})
	}

	supportedCoins := pricingservice.SupportedCoins()
	coinChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(supportedCoins))
	for _, c := range supportedCoins {
		coinChoices = append(coinChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  strings.ToUpper(c),
			Value: c,
		})
	}

	return &discordgo.ApplicationCommand{
		Name:        "brainrot",
		Description: "Manage the brainrot market listings",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "List a brainrot, or bump an identical existing listing",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "Brainrot name",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "rarity",
						Description: "Rarity tier",
						Required:    true,
						Choices:     rarityChoices,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "price",
						Description: "Price in USD, suffixes like 1.5m allowed",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "mutation",
						Description: "Mutation, defaults to none",
						Choices:     mutationChoices,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "traits",
						Description: "Comma-separated traits",
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "demand",
						Description: "Demand from 1 to 10",
						MinValue:    float64Ptr(1),
						MaxValue:    10,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "Show current listings",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "rarity",
						Description: "Only this rarity",
						Choices:     rarityChoices,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "price",
				Description: "Quote a listing in USD and crypto",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "Brainrot name",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "coin",
						Description: "Crypto ticker, defaults to btc",
						Choices:     coinChoices,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a listing",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "Brainrot name",
						Required:    true,
					},
				},
			},
		},
	}
}

func (b *Bot) handleBrainrotCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]

	switch sub.Name {
	case "add":
		b.handleBrainrotAdd(s, i, sub)
	case "list":
		b.handleBrainrotList(s, i, sub)
	case "price":
		b.handleBrainrotPrice(s, i, sub)
	case "remove":
		b.handleBrainrotRemove(s, i, sub)
	}
}

func (b *Bot) handleBrainrotAdd(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	if !b.isAdmin(i) {
		b.respondEphemeral(s, i, "You need Manage Server permission to manage listings.")
		return
	}

	opts := optionMap(sub.Options)

	create := &brainrotmodels.BrainrotCreate{
		ServerID:  i.GuildID,
		Name:      opts["name"].StringValue(),
		Rarity:    brainrotmodels.Rarity(opts["rarity"].StringValue()),
		PriceUSD:  opts["price"].StringValue(),
		CreatedBy: interactionUserID(i),
	}
	if opt, ok := opts["mutation"]; ok {
		create.Mutation = brainrotmodels.Mutation(opt.StringValue())
	}
	if opt, ok := opts["traits"]; ok {
		create.Traits = splitTraits(opt.StringValue())
	}
	if opt, ok := opts["demand"]; ok {
		create.Demand = int(opt.IntValue())
	}

	brainrot, merged, err := b.brainrots.CreateOrMerge(context.Background(), create)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	if merged {
		b.respond(s, i, fmt.Sprintf("Updated **%s**: now $%s, demand %d/10.",
			brainrot.Name, formatUSD(brainrot.PriceUSD), brainrot.Demand))
		return
	}
	b.respond(s, i, fmt.Sprintf("Listed **%s** (%s%s) at $%s, demand %d/10.",
		brainrot.Name, brainrot.Rarity, mutationSuffix(brainrot.Mutation), formatUSD(brainrot.PriceUSD), brainrot.Demand))
}

func (b *Bot) handleBrainrotList(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(sub.Options)

	var filter brainrotmodels.ListFilter
	if opt, ok := opts["rarity"]; ok {
		filter.Rarity = brainrotmodels.Rarity(opt.StringValue())
	}

	brainrots, err := b.brainrots.ListForServer(context.Background(), i.GuildID, filter)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	if len(brainrots) == 0 {
		b.respondEphemeral(s, i, "No listings yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("**Brainrot market**\n")
	for n, br := range brainrots {
		if n >= 25 {
			fmt.Fprintf(&sb, "... and %d more\n", len(brainrots)-n)
			break
		}
		fmt.Fprintf(&sb, "%d. **%s** (%s%s) - $%s, demand %d/10\n",
			n+1, br.Name, br.Rarity, mutationSuffix(br.Mutation), formatUSD(br.PriceUSD), br.Demand)
	}

	b.respond(s, i, sb.String())
}

func (b *Bot) handleBrainrotPrice(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optionMap(sub.Options)

	ctx := context.Background()
	brainrot, err := b.findByName(ctx, i.GuildID, opts["name"].StringValue())
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	coin := "btc"
	if opt, ok := opts["coin"]; ok {
		coin = strings.ToLower(opt.StringValue())
	}

	amount, err := b.oracle.ConvertUSD(ctx, brainrot.PriceUSD, coin)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	b.respond(s, i, fmt.Sprintf("**%s** is $%s, or %s %s.",
		brainrot.Name, formatUSD(brainrot.PriceUSD), amount.String(), strings.ToUpper(coin)))
}

func (b *Bot) handleBrainrotRemove(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	if !b.isAdmin(i) {
		b.respondEphemeral(s, i, "You need Manage Server permission to manage listings.")
		return
	}

	opts := optionMap(sub.Options)
	name := opts["name"].StringValue()

	ctx := context.Background()
	brainrot, err := b.findByName(ctx, i.GuildID, name)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	if err := b.brainrots.Delete(ctx, brainrot.ID); err != nil {
		b.respondError(s, i, err)
		return
	}

	b.respond(s, i, fmt.Sprintf("Removed **%s** from the market.", brainrot.Name))
}

// findByName resolves a listing by name, preferring the priciest match.
func (b *Bot) findByName(ctx context.Context, serverID, name string) (*brainrotmodels.Brainrot, error) {
	brainrots, err := b.brainrots.ListForServer(ctx, serverID, brainrotmodels.ListFilter{Name: name})
	if err != nil {
		return nil, err
	}
	if len(brainrots) == 0 {
		return nil, apperrors.NewBrainrotNotFoundError(name)
	}
	return brainrots[0], nil
}

func splitTraits(raw string) []string {
	parts := strings.Split(raw, ",")
	traits := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			traits = append(traits, t)
		}
	}
	return traits
}

func formatUSD(price decimal.Decimal) string {
	return price.StringFixed(2)
}

func mutationSuffix(m brainrotmodels.Mutation) string {
	if m == brainrotmodels.MutationNone {
		return ""
	}
	return ", " + string(m)
}

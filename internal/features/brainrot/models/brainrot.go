package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Rarity tiers, cheapest to rarest.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
	RaritySecret    Rarity = "secret"
)

// Rarities lists the tiers in display order.
var Rarities = []Rarity{
	RarityCommon, RarityRare, RarityEpic,
	RarityLegendary, RarityMythic, RaritySecret,
}

var rarities = map[Rarity]struct{}{
	RarityCommon: {}, RarityRare: {}, RarityEpic: {},
	RarityLegendary: {}, RarityMythic: {}, RaritySecret: {},
}

func (r Rarity) Valid() bool {
	_, ok := rarities[r]
	return ok
}

// Mutation variants a brainrot can roll.
type Mutation string

const (
	MutationNone    Mutation = "none"
	MutationGold    Mutation = "gold"
	MutationDiamond Mutation = "diamond"
	MutationRainbow Mutation = "rainbow"
	MutationGalaxy  Mutation = "galaxy"
)

// Mutations lists the variants in display order.
var Mutations = []Mutation{
	MutationNone, MutationGold, MutationDiamond,
	MutationRainbow, MutationGalaxy,
}

var mutations = map[Mutation]struct{}{
	MutationNone: {}, MutationGold: {}, MutationDiamond: {},
	MutationRainbow: {}, MutationGalaxy: {},
}

func (m Mutation) Valid() bool {
	_, ok := mutations[m]
	return ok
}

// Brainrot is one tracked collectible item in a server's catalog.
type Brainrot struct {
	ID        string          `json:"id"`
	ServerID  string          `json:"server_id"`
	Name      string          `json:"name"`
	Rarity    Rarity          `json:"rarity"`
	Mutation  Mutation        `json:"mutation"`
	Traits    []string        `json:"traits"`
	PriceUSD  decimal.Decimal `json:"price_usd"`
	Demand    int             `json:"demand"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MergeKey is the structural identity of an item: normalized name, rarity,
// mutation and sorted traits. Two records with equal keys describe the same
// item and are merged, regardless of field or trait order.
func (b *Brainrot) MergeKey() string {
	traits := make([]string, 0, len(b.Traits))
	for _, t := range b.Traits {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			traits = append(traits, t)
		}
	}
	sort.Strings(traits)

	parts := []string{
		strings.ToLower(strings.TrimSpace(b.Name)),
		string(b.Rarity),
		string(b.Mutation),
		strings.Join(traits, "+"),
	}
	return strings.Join(parts, "|")
}

// BrainrotCreate carries the fields needed to register an item.
type BrainrotCreate struct {
	ServerID  string   `json:"server_id" binding:"required"`
	Name      string   `json:"name" binding:"required,min=1,max=100"`
	Rarity    Rarity   `json:"rarity" binding:"required"`
	Mutation  Mutation `json:"mutation"`
	Traits    []string `json:"traits"`
	PriceUSD  string   `json:"price_usd"`
	Demand    int      `json:"demand"`
	CreatedBy string   `json:"created_by"`
}

// BrainrotUpdate carries the mutable fields.
type BrainrotUpdate struct {
	PriceUSD *string  `json:"price_usd,omitempty"`
	Demand   *int     `json:"demand,omitempty"`
	Traits   []string `json:"traits,omitempty"`
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Rarity   Rarity
	Mutation Mutation
	Name     string
}

// Package shop is the private-chat storefront for paid arena operations.
package shop

import (
	"duel-arena/internal/config"
	"duel-arena/internal/model"
)

// OfferType names something the storefront sells.
type OfferType string

const (
	OfferCharacter OfferType = "character" // mint a new character
	OfferWeapon    OfferType = "weapon"    // forge a weapon
	OfferArtifact  OfferType = "artifact"  // forge an artifact
)

// Offer is one storefront entry.
type Offer struct {
	Type        OfferType
	Name        string
	Emoji       string
	Price       int64
	Description string
}

// EquipmentKind returns the registry a forge offer produces into.
// ok is false for offers that are not forges.
func (o Offer) EquipmentKind() (model.EquipmentKind, bool) {
	switch o.Type {
	case OfferWeapon:
		return model.KindWeapon, true
	case OfferArtifact:
		return model.KindArtifact, true
	}
	return "", false
}

// Catalog is the priced list of offers.
type Catalog struct {
	offers []Offer
}

// NewCatalog prices every offer from the economy configuration.
func NewCatalog(economy config.EconomyConfig) *Catalog {
	return &Catalog{offers: []Offer{
		{
			Type:        OfferCharacter,
			Name:        "召唤角色",
			Emoji:       "🎴",
			Price:       economy.MintPrice,
			Description: "随机职业与稀有度，稀有度越高属性越强",
		},
		{
			Type:        OfferWeapon,
			Name:        "锻造武器",
			Emoji:       "⚔️",
			Price:       economy.ForgePrice,
			Description: "提升攻击，并附加速度或幸运",
		},
		{
			Type:        OfferArtifact,
			Name:        "锻造神器",
			Emoji:       "🔮",
			Price:       economy.ForgePrice,
			Description: "提升魔力，附带可消耗次数的战斗特效",
		},
	}}
}

// All returns the offers in display order.
func (c *Catalog) All() []Offer {
	return c.offers
}

// Get returns the offer of the given type.
func (c *Catalog) Get(t OfferType) (Offer, bool) {
	for _, o := range c.offers {
		if o.Type == t {
			return o, true
		}
	}
	return Offer{}, false
}

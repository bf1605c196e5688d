package handler

import (
	"strings"

	tele "gopkg.in/telebot.v3"

	"duel-arena/internal/service"
	"duel-arena/internal/shop"
)

// ShopHandler runs the private-chat storefront.
type ShopHandler struct {
	accounts   *service.AccountService
	characters *service.CharacterService
	equipment  *service.EquipmentService
	catalog    *shop.Catalog
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(
	accounts *service.AccountService,
	characters *service.CharacterService,
	equipment *service.EquipmentService,
	catalog *shop.Catalog,
) *ShopHandler {
	return &ShopHandler{
		accounts:   accounts,
		characters: characters,
		equipment:  equipment,
		catalog:    catalog,
	}
}

// HandleShopStart handles /start in private chat: ensures the wallet and
// shows the storefront.
func (h *ShopHandler) HandleShopStart(c tele.Context) error {
	balance, _, err := h.accounts.EnsureWallet(requestContext(c), CallerFrom(c))
	if err != nil {
		return replyError(c, err)
	}
	return c.Send(shop.FormatShopMessage(balance), shop.BuildShopPanel(h.catalog))
}

// HandleShopCallback handles storefront button callbacks. data has the
// telebot prefix already stripped.
func (h *ShopHandler) HandleShopCallback(c tele.Context, data string) error {
	ctx := requestContext(c)
	caller := CallerFrom(c)

	switch {
	case data == shop.CallbackShopRefresh, data == shop.CallbackShopCancel:
		balance, _ := h.accounts.Balance(ctx, caller)
		return c.Edit(shop.FormatShopMessage(balance), shop.BuildShopPanel(h.catalog))

	case strings.HasPrefix(data, shop.CallbackShopItem):
		offer, ok := h.catalog.Get(shop.OfferType(strings.TrimPrefix(data, shop.CallbackShopItem)))
		if !ok {
			return c.Respond(&tele.CallbackResponse{Text: "❌ 商品不存在"})
		}
		balance, _ := h.accounts.Balance(ctx, caller)
		return c.Edit(shop.FormatOfferDetail(offer, balance), shop.BuildConfirmPanel(offer.Type))

	case strings.HasPrefix(data, shop.CallbackShopBuy):
		offer, ok := h.catalog.Get(shop.OfferType(strings.TrimPrefix(data, shop.CallbackShopBuy)))
		if !ok {
			return c.Respond(&tele.CallbackResponse{Text: "❌ 商品不存在", ShowAlert: true})
		}

		var result string
		if kind, isForge := offer.EquipmentKind(); isForge {
			eq, err := h.equipment.Forge(ctx, caller, kind, offer.Price)
			if err != nil {
				return c.Respond(&tele.CallbackResponse{Text: errorText(c, err), ShowAlert: true})
			}
			result = formatEquipment(eq)
		} else {
			ch, err := h.characters.Mint(ctx, caller, offer.Price)
			if err != nil {
				return c.Respond(&tele.CallbackResponse{Text: errorText(c, err), ShowAlert: true})
			}
			result = formatCharacter(ch)
		}

		_ = c.Respond(&tele.CallbackResponse{Text: "✅ 购买成功！" + offer.Emoji + " " + offer.Name})
		if err := c.Send("🎁 " + offer.Name + "\n\n" + result); err != nil {
			return err
		}
		balance, _ := h.accounts.Balance(ctx, caller)
		return c.Edit(shop.FormatShopMessage(balance), shop.BuildShopPanel(h.catalog))
	}

	return nil
}

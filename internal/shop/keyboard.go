package shop

import (
	"fmt"

	tele "gopkg.in/telebot.v3"
)

// Callback data prefixes
const (
	CallbackShopItem    = "shop_item:" // shop_item:weapon
	CallbackShopBuy     = "shop_buy:"  // shop_buy:weapon
	CallbackShopCancel  = "shop_cancel"
	CallbackShopRefresh = "shop_refresh"
)

// BuildShopPanel creates the main panel with one button per offer.
func BuildShopPanel(catalog *Catalog) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var rows []tele.Row
	for _, offer := range catalog.All() {
		btn := markup.Data(
			fmt.Sprintf("%s %s (%d💰)", offer.Emoji, offer.Name, offer.Price),
			CallbackShopItem+string(offer.Type),
		)
		rows = append(rows, markup.Row(btn))
	}
	rows = append(rows, markup.Row(markup.Data("🔄 刷新", CallbackShopRefresh)))

	markup.Inline(rows...)
	return markup
}

// BuildConfirmPanel creates the purchase confirmation panel.
func BuildConfirmPanel(t OfferType) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("✅ 购买", CallbackShopBuy+string(t)),
		markup.Data("❌ 取消", CallbackShopCancel),
	))
	return markup
}

// FormatShopMessage creates the storefront welcome message.
func FormatShopMessage(balance int64) string {
	msg := "🏪 欢迎来到决斗场商店\n"
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("💰 你的余额: %d 金币\n", balance)
	msg += "━━━━━━━━━━━━━━━\n"
	msg += "点击下方按钮查看详情："
	return msg
}

// FormatOfferDetail creates the confirmation message for one offer.
func FormatOfferDetail(offer Offer, balance int64) string {
	msg := fmt.Sprintf("%s %s\n", offer.Emoji, offer.Name)
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("💰 价格: %d 金币\n", offer.Price)
	msg += fmt.Sprintf("📝 说明: %s\n", offer.Description)
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("💰 你的余额: %d 金币\n", balance)
	if balance < offer.Price {
		msg += "❌ 余额不足！"
	} else {
		msg += "确认购买吗？"
	}
	return msg
}

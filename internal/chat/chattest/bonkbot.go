package chattest

import (
	"strings"

	"whale-copytrader/internal/chat"
)

// Prompts sent by the scripted BonkBot.
const (
	AmountPrompt  = "Reply with the amount you wish to buy (0 - 10 SOL, Example: 0.1):"
	PercentPrompt = "Reply with the % you wish to limit sell (0 - 100%, Example: 50%):"
	TriggerPrompt = "Enter a trigger for your limit sell order as a multiple of entry (Example: 2x):"
)

// BonkBot returns a bot scripted with the full purchase and limit order
// conversation.
func BonkBot() *Bot {
	return NewBot(
		Rule{
			OnText: "/start=",
			RespondFunc: func(text string) []chat.Message {
				contract := text
				if i := strings.Index(text, "_ca_"); i >= 0 {
					contract = text[i+len("_ca_"):]
				}
				return []chat.Message{{
					Text:    "Buy $TOKEN\n" + contract + "\nBalance: 1.2 SOL",
					Buttons: Buttons([]string{"Cancel"}, []string{"Buy 1.0 SOL", "Buy 5.0 SOL", "Buy X SOL"}),
				}}
			},
		},
		Rule{OnButton: "Buy X SOL", Respond: []chat.Message{{Text: AmountPrompt}}},
		Rule{OnReplyTo: "Reply with the amount you wish to buy", Respond: []chat.Message{{
			Text:    "Buy Success!\nProfit: 0.00%\nValue: 0.005 SOL",
			Buttons: Buttons([]string{"Sell 50%", "Sell 100%"}, []string{"Limit", "Refresh"}),
		}}},
		Rule{OnButton: "Limit", Respond: []chat.Message{{
			Text:    "Limit Orders",
			Buttons: Buttons([]string{"Limit Buy X SOL", "Limit Sell X %"}),
		}}},
		Rule{OnButton: "Limit Sell X %", Respond: []chat.Message{{Text: PercentPrompt}}},
		Rule{OnReplyTo: "Reply with the % you wish to limit sell", Respond: []chat.Message{{Text: TriggerPrompt}}},
		Rule{OnReplyTo: "Enter a trigger", Respond: []chat.Message{{
			Text:    "Take Profit Sell order preview",
			Buttons: Buttons([]string{"Confirm", "Cancel"}),
		}}},
		Rule{OnButton: "Confirm", Respond: []chat.Message{{Text: "Limit order successfully placed"}}},
	)
}

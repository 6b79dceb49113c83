package executor

// State is a position in the purchase conversation.
type State int

// Conversation states. The limit order branch runs from ProfitPrompted to
// LimitPlaced and is skipped when no limit order is requested.
const (
	Idle State = iota
	SentBuyCommand
	CoinConfirmed
	ClickedBuyButton
	AmountPrompted
	AmountSent
	ProfitPrompted
	ClickedLimitMenu
	ClickedLimitSellPercentOption
	PercentPrompted
	PercentSent
	TriggerPrompted
	TriggerSent
	ConfirmPrompted
	ClickedConfirm
	LimitPlaced
	Done
	Failed
)

var stateNames = [...]string{
	Idle:                          "idle",
	SentBuyCommand:                "sent_buy_command",
	CoinConfirmed:                 "coin_confirmed",
	ClickedBuyButton:              "clicked_buy_button",
	AmountPrompted:                "amount_prompted",
	AmountSent:                    "amount_sent",
	ProfitPrompted:                "profit_prompted",
	ClickedLimitMenu:              "clicked_limit_menu",
	ClickedLimitSellPercentOption: "clicked_limit_sell_percent_option",
	PercentPrompted:               "percent_prompted",
	PercentSent:                   "percent_sent",
	TriggerPrompted:               "trigger_prompted",
	TriggerSent:                   "trigger_sent",
	ConfirmPrompted:               "confirm_prompted",
	ClickedConfirm:                "clicked_confirm",
	LimitPlaced:                   "limit_placed",
	Done:                          "done",
	Failed:                        "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the conversation has ended in s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// ParseState returns the state with the given name.
func ParseState(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return Idle, false
}

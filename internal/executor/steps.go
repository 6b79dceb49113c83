package executor

import (
	"fmt"
	"strconv"
	"time"

	"whale-copytrader/internal/models"
)

// Texts the bot is expected to show, and the buttons pressed.
const (
	AmountPromptText  = "Reply with the amount you wish to buy"
	ProfitText        = "Profit"
	PercentPromptText = "Reply with the % you wish to limit sell"
	TriggerPromptText = "Enter a trigger"
	ConfirmPromptText = "Take Profit Sell"
	LimitPlacedText   = "successfully placed"

	BuyXButton          = "Buy X SOL"
	LimitMenuButton     = "Limit"
	LimitSellXPctButton = "Limit Sell X %"
	ConfirmButton       = "Confirm"
)

type stepKind int

const (
	// send posts a new message.
	kindSend stepKind = iota
	// reply answers the message found by the previous wait.
	kindReply
	// wait polls the latest message for a substring.
	kindWait
	// click presses a button of the latest message.
	kindClick
)

func (k stepKind) String() string {
	switch k {
	case kindSend:
		return "send"
	case kindReply:
		return "reply"
	case kindWait:
		return "wait"
	case kindClick:
		return "click"
	default:
		return "unknown"
	}
}

// step is one unit of protocol work. On success the conversation moves to
// next.
type step struct {
	name  string
	kind  stepKind
	text  string        // message sent by send and reply steps
	want  string        // substring for wait, button label for click
	pause time.Duration // slept before the step runs
	next  State
}

// StartCommand builds the deep-link start command that opens the purchase
// menu of contract.
func StartCommand(referralCode, contract string) string {
	return fmt.Sprintf("/start=ref_%s_ca_%s", referralCode, contract)
}

// FormatPercent renders a limit sell percentage as the bot expects it.
func FormatPercent(p int) string {
	return strconv.Itoa(p) + "%"
}

// FormatMultiple renders a trigger multiple as the bot expects it.
func FormatMultiple(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64) + "x"
}

// plan lays out the steps of a conversation for req.
func (e *Executor) plan(req models.TradeRequest) []step {
	steps := []step{
		{name: "send_start_command", kind: kindSend, text: StartCommand(e.cfg.ReferralCode, req.ContractAddress), next: SentBuyCommand},
		{name: "await_coin", kind: kindWait, want: req.ContractAddress, next: CoinConfirmed},
		{name: "click_buy_x", kind: kindClick, want: BuyXButton, next: ClickedBuyButton},
		{name: "await_amount_prompt", kind: kindWait, want: AmountPromptText, next: AmountPrompted},
		{name: "send_amount", kind: kindReply, text: req.SOLAmount.String(), next: AmountSent},
	}
	if !req.Limit.Enabled {
		return steps
	}

	d := e.cfg.LimitStepDelay
	return append(steps,
		step{name: "await_profit", kind: kindWait, want: ProfitText, pause: e.cfg.SettleDelay, next: ProfitPrompted},
		step{name: "click_limit", kind: kindClick, want: LimitMenuButton, pause: d, next: ClickedLimitMenu},
		step{name: "click_limit_sell", kind: kindClick, want: LimitSellXPctButton, pause: d, next: ClickedLimitSellPercentOption},
		step{name: "await_percent_prompt", kind: kindWait, want: PercentPromptText, pause: d, next: PercentPrompted},
		step{name: "send_percent", kind: kindReply, text: FormatPercent(req.Limit.SellPercent), next: PercentSent},
		step{name: "await_trigger_prompt", kind: kindWait, want: TriggerPromptText, pause: d, next: TriggerPrompted},
		step{name: "send_trigger", kind: kindReply, text: FormatMultiple(req.Limit.TriggerMultiple), next: TriggerSent},
		step{name: "await_confirm", kind: kindWait, want: ConfirmPromptText, pause: d, next: ConfirmPrompted},
		step{name: "click_confirm", kind: kindClick, want: ConfirmButton, next: ClickedConfirm},
		step{name: "await_limit_placed", kind: kindWait, want: LimitPlacedText, pause: d, next: LimitPlaced},
	)
}

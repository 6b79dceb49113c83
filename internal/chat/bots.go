package chat

import "fmt"

// Bots lists the BonkBot front-ends a purchase can be routed through, in
// selector order (selector 1 is the first entry).
var Bots = []string{
	"mcqueen_bonkbot",
	"bonkbot_bot",
	"monza_bonkbot",
	"furiosa_bonkbot",
	"neo_bonkbot",
	"sonic_bonkbot",
}

// BotByIndex returns the bot for a 1-based selector.
func BotByIndex(selector int) (string, error) {
	if selector < 1 || selector > len(Bots) {
		return "", fmt.Errorf("invalid bot selector %d: must be between 1 and %d", selector, len(Bots))
	}
	return Bots[selector-1], nil
}

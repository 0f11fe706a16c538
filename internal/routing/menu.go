package routing

import (
	"fmt"
	"strings"

	"github.com/soyeahso/cargoquote/internal/domain"
)

// Main menu tokens. They are handled before the dialogue sees an event.
const (
	TokenMenuStart    = "menu:start"
	TokenMenuCalc     = "menu:calc"
	TokenMenuContacts = "menu:contacts"
	TokenMenuAbout    = "menu:about"
)

const (
	calcLabel     = "🧮 Start price calculation"
	contactsLabel = "📞 Contacts"
	aboutLabel    = "ℹ️ About us"
)

// menuCommands maps typed commands and menu labels to menu tokens.
var menuCommands = map[string]string{
	"/start":      TokenMenuStart,
	"/help":       TokenMenuStart,
	"/menu":       TokenMenuStart,
	"/calc":       TokenMenuCalc,
	calcLabel:     TokenMenuCalc,
	"/contacts":   TokenMenuContacts,
	contactsLabel: TokenMenuContacts,
	"/about":      TokenMenuAbout,
	aboutLabel:    TokenMenuAbout,
}

// menuToken returns the main menu token carried by msg, if any.
func menuToken(msg domain.InboundMessage) (string, bool) {
	if msg.Token != "" {
		switch msg.Token {
		case TokenMenuStart, TokenMenuCalc, TokenMenuContacts, TokenMenuAbout:
			return msg.Token, true
		}
		return "", false
	}
	text := strings.TrimSpace(msg.Body)
	// Telegram appends the bot name in groups: /start@somebot.
	if cmd, _, ok := strings.Cut(text, "@"); ok && strings.HasPrefix(cmd, "/") {
		text = cmd
	}
	tok, ok := menuCommands[strings.ToLower(text)]
	if !ok {
		tok, ok = menuCommands[text]
	}
	return tok, ok
}

func mainMenu() [][]domain.Button {
	return [][]domain.Button{
		{{Label: calcLabel, Token: TokenMenuCalc}},
		{{Label: contactsLabel, Token: TokenMenuContacts}, {Label: aboutLabel, Token: TokenMenuAbout}},
	}
}

func welcomeText(f formatter, biz domain.Business) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🚚 %s\n\n", f.bold("Welcome to "+biz.Name+"!"))
	sb.WriteString("I will help you work out the price of:\n")
	sb.WriteString("• 🚚 Cargo delivery\n")
	sb.WriteString("• 🏠 Apartment moves\n")
	sb.WriteString("• 🏢 Office moves\n")
	sb.WriteString("• 🔨 Dismantling\n")
	sb.WriteString("• 🪑 Furniture assembly\n")
	sb.WriteString("• 🏋️ Rigging work\n\n")
	sb.WriteString(f.bold("Press a button to begin:"))
	return sb.String()
}

func aboutText(f formatter, biz domain.Business) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 %s\n\n", f.bold(strings.ToUpper(biz.Name)+" IN NUMBERS"))
	sb.WriteString("✅ 1000+ completed orders\n")
	sb.WriteString("✅ 20+ professional movers\n")
	sb.WriteString("✅ 5+ years on the market\n")
	sb.WriteString("✅ 98% of customers come back\n\n")
	fmt.Fprintf(&sb, "⚡ %s\n", f.bold("OUR PRINCIPLES:"))
	sb.WriteString("• Punctuality: we arrive on the minute\n")
	sb.WriteString("• Speed: a crew on site in 15-30 minutes\n")
	sb.WriteString("• Loyalty: discounts for regular customers\n")
	if biz.Hours != "" {
		fmt.Fprintf(&sb, "\n💚 %s", f.esc(biz.Hours))
	}
	return sb.String()
}

func contactsText(f formatter, biz domain.Business) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📞 %s\n\n", f.bold("Contacts:"))
	if biz.Phone != "" {
		fmt.Fprintf(&sb, "📱 Phone: %s\n", f.esc(biz.Phone))
	}
	if biz.Email != "" {
		fmt.Fprintf(&sb, "📧 Email: %s\n", f.esc(biz.Email))
	}
	if biz.Telegram != "" {
		fmt.Fprintf(&sb, "📨 Telegram: %s\n", f.esc(biz.Telegram))
	}
	if biz.Website != "" {
		fmt.Fprintf(&sb, "🌐 Website: %s\n", f.esc(biz.Website))
	}
	if biz.Hours != "" {
		fmt.Fprintf(&sb, "⏰ %s", f.bold(biz.Hours))
	}
	return strings.TrimRight(sb.String(), "\n")
}

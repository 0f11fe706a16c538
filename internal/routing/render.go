package routing

import (
	"fmt"
	"html"
	"strings"

	"github.com/soyeahso/cargoquote/internal/dialogue"
	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/pricing"
	"github.com/soyeahso/cargoquote/internal/tariff"
)

// formatter applies markup only when the channel renders HTML.
type formatter struct{ html bool }

func (f formatter) esc(s string) string {
	if f.html {
		return html.EscapeString(s)
	}
	return s
}

func (f formatter) bold(s string) string {
	if f.html {
		return "<b>" + html.EscapeString(s) + "</b>"
	}
	return s
}

// renderPrompt turns a dialogue prompt into a chat message.
func renderPrompt(f formatter, p dialogue.Prompt) domain.OutboundMessage {
	var sb strings.Builder
	if p.Problem != "" {
		fmt.Fprintf(&sb, "⚠️ %s\n\n", f.esc(p.Problem))
	}
	if p.Step > 0 {
		fmt.Fprintf(&sb, "📋 %s\n", f.bold(fmt.Sprintf("Step %d/%d", p.Step, p.Total)))
	}
	sb.WriteString(f.esc(p.Question))

	if p.Numeric != nil {
		fmt.Fprintf(&sb, "\n%s", f.esc(numericHint(*p.Numeric)))
	}
	if p.State == dialogue.SelectingExtras {
		if len(p.Selected) == 0 {
			sb.WriteString("\n\nNothing selected yet.")
		} else {
			fmt.Fprintf(&sb, "\n\n%s", f.bold("Selected:"))
			for _, e := range p.Selected {
				fmt.Fprintf(&sb, "\n• %s", f.esc(e.Label()))
			}
		}
	}

	return domain.OutboundMessage{
		Body:      sb.String(),
		Buttons:   promptButtons(p),
		HTML:      f.html,
		TextInput: p.Numeric != nil,
	}
}

func numericHint(r dialogue.Range) string {
	if r.Integer {
		return fmt.Sprintf("Type a whole number from %s.", r)
	}
	return fmt.Sprintf("Type a number from %s (e.g. 2.5).", r)
}

func promptButtons(p dialogue.Prompt) [][]domain.Button {
	var rows [][]domain.Button
	var controls []domain.Button
	for _, o := range p.Options {
		switch o.Token {
		case dialogue.TokenExtrasDone, dialogue.TokenExtrasSkip:
			controls = append(controls, domain.Button{Label: o.Label, Token: o.Token})
			continue
		}
		rows = append(rows, []domain.Button{{Label: optionLabel(p, o), Token: o.Token}})
	}
	if len(controls) > 0 {
		rows = append(rows, controls)
	}
	if !p.State.Terminal() {
		rows = append(rows, []domain.Button{{Label: dialogue.CancelLabel, Token: dialogue.TokenCancel}})
	}
	return rows
}

// optionLabel decorates extras with their price tag and a check mark when
// selected.
func optionLabel(p dialogue.Prompt, o dialogue.Option) string {
	e, ok := dialogue.ParseExtraToken(o.Token)
	if !ok {
		return o.Label
	}
	label := o.Label
	if price, ok := tariff.Price(e); ok {
		label += " (" + price.Tag() + ")"
	}
	if p.IsSelected(e) {
		label = "✅ " + label
	}
	return label
}

// renderResult formats a computed quote with the follow-up actions.
func renderResult(f formatter, b *pricing.CostBreakdown) domain.OutboundMessage {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ %s\n\n", f.bold("CALCULATION COMPLETE"))
	sb.WriteString(f.esc(b.Details))
	fmt.Fprintf(&sb, "\n\n%s", f.esc(dialogue.PromptFor(dialogue.AwaitingAction, nil).Question))

	return domain.OutboundMessage{
		Body:    sb.String(),
		Buttons: actionButtons(),
		HTML:    f.html,
	}
}

func actionButtons() [][]domain.Button {
	rows := make([][]domain.Button, 0, len(dialogue.Actions()))
	for _, a := range dialogue.Actions() {
		rows = append(rows, []domain.Button{{Label: a.Label(), Token: a.Token()}})
	}
	return rows
}

package channel

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/soyeahso/cargoquote/internal/domain"
)

// Choices remembers the last numbered menu shown to each recipient of a
// text-only transport, so that a reply of "3" can be turned back into the
// token of the third button.
type Choices struct {
	mu    sync.Mutex
	menus map[string][]string
}

// NewChoices returns an empty menu memory.
func NewChoices() *Choices {
	return &Choices{menus: make(map[string][]string)}
}

// Render appends the message's buttons to its body as a numbered list and
// remembers their tokens for target. A message without buttons, or one that
// expects typed input, forgets any previous menu; its buttons are listed by
// label only so that they can be typed.
func (c *Choices) Render(target string, msg domain.OutboundMessage) string {
	buttons := msg.FlatButtons()

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(buttons) == 0 {
		delete(c.menus, target)
		return msg.Body
	}
	if msg.TextInput {
		delete(c.menus, target)
		labels := make([]string, len(buttons))
		for i, b := range buttons {
			labels[i] = b.Label
		}
		return msg.Body + "\n(or type: " + strings.Join(labels, ", ") + ")"
	}

	tokens := make([]string, len(buttons))
	var sb strings.Builder
	sb.WriteString(msg.Body)
	sb.WriteString("\n")
	for i, b := range buttons {
		tokens[i] = b.Token
		fmt.Fprintf(&sb, "\n%d) %s", i+1, b.Label)
	}
	c.menus[target] = tokens
	return sb.String()
}

// Resolve maps a numeric reply from target to the remembered token.
func (c *Choices) Resolve(target, text string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tokens := c.menus[target]
	if n < 1 || n > len(tokens) {
		return "", false
	}
	return tokens[n-1], true
}

// Forget drops the menu remembered for target.
func (c *Choices) Forget(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.menus, target)
}

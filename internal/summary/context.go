package summary

import (
	"strings"

	"github.com/dshills/brief/internal/budget"
	"github.com/dshills/brief/internal/providers"
)

// Role identifies the author of a context message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one entry of a Context.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Context is the ordered message list sent to the model: exactly one system
// message followed by exactly one user message.
type Context []Message

// Assemble builds the context for the selected candidates. Contents are
// joined with a single newline in the order given, which is the allocator's
// ascending-estimate order.
func Assemble(selected []budget.Candidate, instructions string) Context {
	parts := make([]string, len(selected))
	for i, c := range selected {
		parts[i] = c.Content
	}
	return Context{
		{Role: RoleSystem, Content: instructions},
		{Role: RoleUser, Content: strings.Join(parts, "\n")},
	}
}

// System returns the system message content.
func (c Context) System() string { return c.content(RoleSystem) }

// User returns the user message content.
func (c Context) User() string { return c.content(RoleUser) }

func (c Context) content(r Role) string {
	for _, m := range c {
		if m.Role == r {
			return m.Content
		}
	}
	return ""
}

// String renders the context for diagnostics.
func (c Context) String() string {
	var sb strings.Builder
	for i, m := range c {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("[" + string(m.Role) + "]\n")
		sb.WriteString(m.Content)
	}
	return sb.String()
}

func (c Context) messages() []providers.Message {
	out := make([]providers.Message, len(c))
	for i, m := range c {
		out[i] = providers.Message{Role: providers.Role(m.Role), Content: m.Content}
	}
	return out
}

func (c Context) clone() Context {
	if c == nil {
		return nil
	}
	out := make(Context, len(c))
	copy(out, c)
	return out
}

package modes

import (
	"fmt"
	"strings"

	"github.com/akolanti/codex/internal/domain/chatModel"
	"github.com/akolanti/codex/internal/domain/ragErrors"
)

var known = []chatModel.Mode{chatModel.ModeConcise, chatModel.ModeBalanced, chatModel.ModeDetailed}

// Policy maps a chat mode to the system instruction the model is given.
// It is immutable after NewPolicy.
type Policy struct {
	instructions map[chatModel.Mode]string
}

func NewPolicy(instructions map[string]string) (*Policy, error) {
	p := &Policy{instructions: make(map[chatModel.Mode]string, len(known))}
	for _, m := range known {
		text := strings.TrimSpace(instructions[string(m)])
		if text == "" {
			return nil, fmt.Errorf("no instruction configured for mode %q", m)
		}
		p.instructions[m] = text
	}
	return p, nil
}

func (p *Policy) InstructionFor(mode chatModel.Mode) (string, error) {
	text, ok := p.instructions[mode]
	if !ok {
		return "", ragErrors.Wrapf(ragErrors.ErrUnknownMode, "%q", mode)
	}
	return text, nil
}

// ParseMode accepts the three known names, case-insensitive. Empty input means balanced.
func ParseMode(raw string) (chatModel.Mode, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return chatModel.ModeBalanced, nil
	}
	for _, m := range known {
		if string(m) == s {
			return m, nil
		}
	}
	return "", ragErrors.Wrapf(ragErrors.ErrUnknownMode, "%q", raw)
}

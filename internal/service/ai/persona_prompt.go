package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/z-assistant/backend/internal/model/persona"
)

// PersonaPromptManager assembles the fixed system instruction for each persona.
type PersonaPromptManager struct {
	overrides map[string]string
}

// NewPersonaPromptManager creates a prompt manager. Entries in overrides replace the
// generated instruction for the matching persona id.
func NewPersonaPromptManager(overrides map[string]string) *PersonaPromptManager {
	manager := &PersonaPromptManager{overrides: make(map[string]string, len(overrides))}
	for id, text := range overrides {
		manager.overrides[id] = text
	}
	return manager
}

// BuildSystemInstruction returns the instruction applied to every call for p, or an
// empty string when the persona runs without one.
func (pm *PersonaPromptManager) BuildSystemInstruction(p *persona.Persona) string {
	if p == nil {
		return ""
	}
	if text, ok := pm.overrides[p.ID]; ok {
		return text
	}
	if p.Description == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(p.Description)
	if p.Goal != "" {
		b.WriteString("\n")
		b.WriteString(p.Goal)
	}
	if p.Brevity != "" {
		b.WriteString("\n\n")
		b.WriteString(p.Brevity)
	}
	if len(p.Guidelines) > 0 {
		b.WriteString("\n\nStrictly adhere to the following guidelines:\n")
		for i, rule := range p.Guidelines {
			fmt.Fprintf(&b, "%d.  %s\n", i+1, rule)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

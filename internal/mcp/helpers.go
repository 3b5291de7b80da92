package mcp

import (
	"fmt"
	"strings"

	"persona-mcp/internal/persona"
)

// ResponseEnvelope is the uniform shape every tool returns.
type ResponseEnvelope struct {
	Data     any      `json:"data"`
	Guidance []string `json:"guidance,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Charts   []string `json:"charts,omitempty"`
}

// WrapResponse packages tool output with optional guidance, warnings and charts.
func WrapResponse(data any, guidance, warnings, charts []string) ResponseEnvelope {
	var nonEmpty []string
	for _, c := range charts {
		if c != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	return ResponseEnvelope{Data: data, Guidance: guidance, Warnings: warnings, Charts: nonEmpty}
}

// parseOptionalPersona returns ok=false for an empty label.
func parseOptionalPersona(label string) (persona.Persona, bool, error) {
	if strings.TrimSpace(label) == "" {
		return 0, false, nil
	}
	p, err := persona.Parse(label)
	if err != nil {
		return 0, false, fmt.Errorf("%w. Available personas: %s", err, strings.Join(personaLabels(), ", "))
	}
	return p, true, nil
}

func personaLabels() []string {
	labels := make([]string, 0, len(persona.All()))
	for _, p := range persona.All() {
		labels = append(labels, p.Label())
	}
	return labels
}

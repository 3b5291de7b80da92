package persona

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPersona is returned when a label does not match any persona.
	ErrUnknownPersona = errors.New("unknown persona")
	// ErrUnknownDayType is returned when a label is neither Weekday nor Weekend.
	ErrUnknownDayType = errors.New("unknown day type")
)

// Persona is the life-domain category every time entry is classified into.
type Persona int

const (
	Sleep Persona = iota
	Spiritual
	Individual
	Professional
	Husband
	Family
	Social
)

// Info holds the presentation and lookup metadata of a persona.
type Info struct {
	Label string // Canonical label used by the data feed (e.g., "P3 Professional")
	Name  string
	Color string
	Key   string // Optimizer key (work, sleep, ...)
}

var registry = [...]Info{
	Sleep:        {Label: "P0 Sleep", Name: "Sleep", Color: "#6C63FF", Key: "sleep"},
	Spiritual:    {Label: "P1 Muslim", Name: "Spiritual", Color: "#2E7D32", Key: "spiritual"},
	Individual:   {Label: "P2 Individual", Name: "Individual", Color: "#F9A825", Key: "individual"},
	Professional: {Label: "P3 Professional", Name: "Professional", Color: "#1565C0", Key: "work"},
	Husband:      {Label: "P4 Husband", Name: "Husband", Color: "#AD1457", Key: "husband"},
	Family:       {Label: "P5 Family", Name: "Family", Color: "#EF6C00", Key: "family"},
	Social:       {Label: "P6 Friend", Name: "Social", Color: "#00838F", Key: "social"},
}

var aliases = map[string]Persona{
	"work":     Professional,
	"muslim":   Spiritual,
	"friend":   Social,
	"friends":  Social,
	"partner":  Husband,
	"self":     Individual,
	"health":   Individual,
	"me time":  Individual,
	"spouse":   Husband,
	"faith":    Spiritual,
	"social":   Social,
	"rest":     Sleep,
	"business": Professional,
}

// All returns every persona in canonical order.
func All() []Persona {
	out := make([]Persona, len(registry))
	for i := range registry {
		out[i] = Persona(i)
	}
	return out
}

// Valid reports whether p is a member of the enumeration.
func (p Persona) Valid() bool {
	return p >= 0 && int(p) < len(registry)
}

// Info returns the lookup metadata for p.
func (p Persona) Info() Info {
	if !p.Valid() {
		return Info{Label: fmt.Sprintf("Persona(%d)", int(p)), Name: "Unknown"}
	}
	return registry[p]
}

func (p Persona) Label() string { return p.Info().Label }
func (p Persona) Name() string  { return p.Info().Name }
func (p Persona) Color() string { return p.Info().Color }
func (p Persona) Key() string   { return p.Info().Key }

func (p Persona) String() string { return p.Label() }

// Parse resolves a label, display name, optimizer key or alias (case-insensitive).
func Parse(s string) (Persona, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return 0, fmt.Errorf("%w: empty label", ErrUnknownPersona)
	}
	for i, info := range registry {
		if norm == strings.ToLower(info.Label) || norm == strings.ToLower(info.Name) || norm == info.Key {
			return Persona(i), nil
		}
	}
	if p, ok := aliases[norm]; ok {
		return p, nil
	}
	// Labels such as "P3 Professional/Work" carry the name after the code.
	if _, rest, ok := strings.Cut(norm, " "); ok && len(norm) > 1 && norm[0] == 'p' {
		if head, _, _ := strings.Cut(rest, "/"); head != rest {
			return Parse(head)
		}
		return Parse(rest)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPersona, s)
}

func (p Persona) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Label())
}

func (p *Persona) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Persona) MarshalText() ([]byte, error) {
	return []byte(p.Label()), nil
}

func (p *Persona) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

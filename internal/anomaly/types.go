package anomaly

// Type classifies the detector family that produced an anomaly.
type Type string

const (
	Statistical Type = "Statistical"
	Structural  Type = "Structural"
	Behavioral  Type = "Behavioral"
)

// Severity ranks how urgently an anomaly deserves attention.
type Severity string

const (
	Critical Severity = "Critical"
	Warning  Severity = "Warning"
	Info     Severity = "Info"
)

// Rule categories that are not persona labels.
const (
	CategoryDataIntegrity   = "Data Integrity"
	CategoryWorkLifeBalance = "Work-Life Balance"
)

// Anomaly is a single finding of a detection run. It is never mutated after creation.
type Anomaly struct {
	Date        string   `json:"date"` // YYYY-MM-DD
	Type        Type     `json:"type"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Persona     string   `json:"persona,omitempty"`
	Description string   `json:"description"`
	Value       float64  `json:"value"`
	Expected    *float64 `json:"expected,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

// Summary counts anomalies by severity and type.
type Summary struct {
	Total      int              `json:"total"`
	BySeverity map[Severity]int `json:"by_severity"`
	ByType     map[Type]int     `json:"by_type"`
	Latest     string           `json:"latest,omitempty"`
}

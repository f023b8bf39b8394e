package model

// Severity is the clinical severity tag from the catalog.
type Severity string

const (
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
	SeverityUnknown  Severity = "Unknown"
)

// Urgency is the triage urgency tag from the catalog.
type Urgency string

const (
	UrgencyLow       Urgency = "Low"
	UrgencyMedium    Urgency = "Medium"
	UrgencyHigh      Urgency = "High"
	UrgencyEmergency Urgency = "Emergency"
	UrgencyUnknown   Urgency = "Unknown"
)

// Rank orders urgencies from Unknown (0) to Emergency (4).
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	case UrgencyEmergency:
		return 4
	default:
		return 0
	}
}

// ParseSeverity maps a string to a known Severity. ok is false for anything else.
func ParseSeverity(s string) (Severity, bool) {
	switch v := Severity(s); v {
	case SeverityMild, SeverityModerate, SeveritySevere, SeverityUnknown:
		return v, true
	}
	return SeverityUnknown, false
}

// ParseUrgency maps a string to a known Urgency. ok is false for anything else.
func ParseUrgency(s string) (Urgency, bool) {
	switch u := Urgency(s); u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency, UrgencyUnknown:
		return u, true
	}
	return UrgencyUnknown, false
}

// SeverityRecord is one disease entry in the severity catalog.
type SeverityRecord struct {
	Disease        string   `json:"-"`
	Severity       Severity `json:"severity,omitempty"`
	Urgency        Urgency  `json:"urgency,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	Description    string   `json:"description,omitempty"`
	TypicalAnimals []string `json:"typical_animals,omitempty"`
}

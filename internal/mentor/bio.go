package mentor

import (
	"encoding/json"
	"strings"
)

const (
	defaultRole      = "Instructor"
	maxDerivedRole   = 30
	defaultSpecialty = "Modern Technologies"
)

// decodeBio splits the stored bio column into display text and optional
// structured details. Older rows hold a JSON object in the same column.
func decodeBio(raw string) (string, *Details) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	var d Details
	if err := json.Unmarshal([]byte(trimmed), &d); err != nil {
		return trimmed, nil
	}
	return d.Description, &d
}

// applyBio fills Role, Company and Bio from the stored bio column.
func (m *Mentor) applyBio(raw string) {
	text, details := decodeBio(raw)
	m.Bio = text
	m.Details = details
	m.Role = defaultRole

	if details != nil {
		if details.Role != "" {
			m.Role = details.Role
		}
		if details.Company != "" {
			m.Company = details.Company
		}
		if m.Bio == "" {
			specialty := defaultSpecialty
			if len(m.Expertise) > 0 {
				specialty = strings.Join(m.Expertise, ", ")
			}
			m.Bio = "Specializing in " + specialty + " and industry leadership."
		}
		return
	}

	if text != "" {
		first := strings.TrimSpace(strings.SplitN(text, ".", 2)[0])
		if first != "" && len(first) <= maxDerivedRole {
			m.Role = first
		}
	}
}

// clamp keeps v inside [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

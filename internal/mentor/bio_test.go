package mentor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyBio(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		company     string
		expertise   []string
		wantRole    string
		wantCompany string
		wantBio     string
		wantDetails bool
	}{
		{
			name:     "Plain text with short first sentence",
			raw:      "Staff Engineer. I help people grow into senior roles.",
			wantRole: "Staff Engineer",
			wantBio:  "Staff Engineer. I help people grow into senior roles.",
		},
		{
			name:     "Plain text with long first sentence",
			raw:      "I have been building distributed systems for over a decade",
			wantRole: "Instructor",
			wantBio:  "I have been building distributed systems for over a decade",
		},
		{
			name:     "Empty bio",
			raw:      "",
			wantRole: "Instructor",
			wantBio:  "",
		},
		{
			name:        "Structured bio",
			raw:         `{"role":"Design Lead","company":"Acme","type":"online","description":"Ten years in product design."}`,
			company:     "Old Co",
			wantRole:    "Design Lead",
			wantCompany: "Acme",
			wantBio:     "Ten years in product design.",
			wantDetails: true,
		},
		{
			name:        "Structured bio without description",
			raw:         `{"type":"offline","address":"Taipei"}`,
			company:     "Old Co",
			expertise:   []string{"Go", "Kubernetes"},
			wantRole:    "Instructor",
			wantCompany: "Old Co",
			wantBio:     "Specializing in Go, Kubernetes and industry leadership.",
			wantDetails: true,
		},
		{
			name:     "Broken JSON falls back to text",
			raw:      `{"role":`,
			wantRole: "Instructor",
			wantBio:  `{"role":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mentor{Company: tt.company, Expertise: tt.expertise}
			m.applyBio(tt.raw)

			assert.Equal(t, tt.wantRole, m.Role)
			assert.Equal(t, tt.wantCompany, m.Company)
			assert.Equal(t, tt.wantBio, m.Bio)
			if tt.wantDetails {
				require.NotNil(t, m.Details)
			} else {
				assert.Nil(t, m.Details)
			}
		})
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy holds the booking and mentor rules that operators tune per deployment.
// Values come from defaults, then the optional YAML file, then env overrides.
type Policy struct {
	Availability AvailabilityPolicy `yaml:"availability"`
	Mentor       MentorPolicy       `yaml:"mentor"`
}

type AvailabilityPolicy struct {
	StartHour int    `yaml:"start_hour"`
	EndHour   int    `yaml:"end_hour"`
	Timezone  string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

type MentorPolicy struct {
	MinHourlyRate float64 `yaml:"min_hourly_rate"`
	MaxHourlyRate float64 `yaml:"max_hourly_rate"`
	MinRating     float64 `yaml:"min_rating"`
	MaxRating     float64 `yaml:"max_rating"`
}

// DefaultPolicy is a 09:00-17:00 UTC day and the marketplace's rate/rating bounds.
func DefaultPolicy() Policy {
	return Policy{
		Availability: AvailabilityPolicy{
			StartHour: 9,
			EndHour:   17,
			Timezone:  "UTC",
			Location:  time.UTC,
		},
		Mentor: MentorPolicy{
			MinHourlyRate: 0,
			MaxHourlyRate: 1000,
			MinRating:     0,
			MaxRating:     5,
		},
	}
}

func loadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Policy{}, fmt.Errorf("failed to parse policy file: %w", err)
		}
	}

	var err error
	if p.Availability.StartHour, err = getEnvAsInt("AVAILABILITY_START_HOUR", p.Availability.StartHour); err != nil {
		return Policy{}, err
	}
	if p.Availability.EndHour, err = getEnvAsInt("AVAILABILITY_END_HOUR", p.Availability.EndHour); err != nil {
		return Policy{}, err
	}
	p.Availability.Timezone = getEnv("AVAILABILITY_TIMEZONE", p.Availability.Timezone)
	if p.Mentor.MinHourlyRate, err = getEnvAsFloat("MENTOR_MIN_HOURLY_RATE", p.Mentor.MinHourlyRate); err != nil {
		return Policy{}, err
	}
	if p.Mentor.MaxHourlyRate, err = getEnvAsFloat("MENTOR_MAX_HOURLY_RATE", p.Mentor.MaxHourlyRate); err != nil {
		return Policy{}, err
	}
	if p.Mentor.MinRating, err = getEnvAsFloat("MENTOR_MIN_RATING", p.Mentor.MinRating); err != nil {
		return Policy{}, err
	}
	if p.Mentor.MaxRating, err = getEnvAsFloat("MENTOR_MAX_RATING", p.Mentor.MaxRating); err != nil {
		return Policy{}, err
	}

	if err := p.validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p *Policy) validate() error {
	a := &p.Availability
	if a.StartHour < 0 || a.EndHour > 24 || a.StartHour >= a.EndHour {
		return fmt.Errorf("invalid availability hours %d-%d", a.StartHour, a.EndHour)
	}

	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return fmt.Errorf("invalid availability timezone %q: %w", a.Timezone, err)
	}
	a.Location = loc

	m := p.Mentor
	if m.MinHourlyRate < 0 || m.MinHourlyRate > m.MaxHourlyRate {
		return fmt.Errorf("invalid hourly rate bounds %.2f-%.2f", m.MinHourlyRate, m.MaxHourlyRate)
	}
	if m.MinRating > m.MaxRating {
		return fmt.Errorf("invalid rating bounds %.2f-%.2f", m.MinRating, m.MaxRating)
	}
	return nil
}

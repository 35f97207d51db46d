package cache

import "time"

const (
	KeyPrefixAvailability = "availability:"
	KeyDeadLetter         = "notify:deadletter"

	versionSuffix = ":v"
)

// AvailabilityKey addresses one mentor's slots for one calendar day.
func AvailabilityKey(mentorID string, day time.Time) string {
	return KeyPrefixAvailability + mentorID + ":" + day.Format(time.DateOnly)
}

// VersionKey holds the invalidation counter guarding key.
func VersionKey(key string) string {
	return key + versionSuffix
}

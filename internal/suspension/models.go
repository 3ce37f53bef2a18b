package suspension

import (
	"time"

	dErrors "confide/pkg/domain-errors"
)

// SuspendedIdentity is a ban on one identity hash. At most one row exists
// per hash; re-suspending replaces reason and duration. Rows are never
// auto-deleted — an expired ban stays as a historical record and "active"
// is computed at query time.
type SuspendedIdentity struct {
	ID                int64      `json:"id"`
	IdentityHash      string     `json:"identity_hash"`
	IdentityEncrypted string     `json:"-"`
	Reason            string     `json:"reason,omitempty"`
	SuspendedUntil    *time.Time `json:"suspended_until"`
	RejectedMessageID *int64     `json:"rejected_message_id,omitempty"`
	CreatedBy         string     `json:"created_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Active reports whether the ban applies at the given instant.
// A nil SuspendedUntil means a permanent ban.
func (s *SuspendedIdentity) Active(now time.Time) bool {
	return s.SuspendedUntil == nil || s.SuspendedUntil.After(now)
}

// DurationSpec is the admin-supplied ban length.
type DurationSpec string

const (
	DurationOneMonth  DurationSpec = "1m"
	DurationSixMonths DurationSpec = "6m"
	DurationLifetime  DurationSpec = "lifetime"
	DurationCustom    DurationSpec = "custom"
)

const (
	customMonthsMin = 1
	customMonthsMax = 60
)

// resolveMonths validates the duration and returns the number of calendar months
// to suspend for, or nil for a lifetime ban.
func resolveMonths(spec DurationSpec, customMonths int) (*int, error) {
	switch spec {
	case DurationOneMonth:
		months := 1
		return &months, nil
	case DurationSixMonths:
		months := 6
		return &months, nil
	case DurationLifetime:
		return nil, nil
	case DurationCustom:
		if customMonths < customMonthsMin || customMonths > customMonthsMax {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "custom months must be between %d and %d", customMonthsMin, customMonthsMax)
		}
		months := customMonths
		return &months, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "invalid duration %q", spec)
	}
}

// addMonths advances t by whole calendar months, clamping to the last day of
// the target month. Suspending on Jan 31 for one month ends on Feb 28/29,
// not Mar 2.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1, hour, minute, sec, t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

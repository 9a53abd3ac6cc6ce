package domain

import (
	"math"
	"time"
)

// Urgency classifies how close a renewal is.
type Urgency string

const (
	UrgencyDanger  Urgency = "danger"
	UrgencyWarning Urgency = "warning"
	UrgencySafe    Urgency = "safe"
)

// Urgency thresholds in days.
const (
	DangerDays  = 3
	WarningDays = 10
)

// DaysUntilRenewal counts calendar days from today to the renewal date.
// Past dates give negative values.
func DaysUntilRenewal(renewal, today time.Time) int {
	diff := DateOnly(renewal).Sub(DateOnly(today))
	return int(math.Ceil(diff.Hours() / 24))
}

// UrgencyFor maps a day count to an urgency class.
func UrgencyFor(days int) Urgency {
	switch {
	case days <= DangerDays:
		return UrgencyDanger
	case days > WarningDays:
		return UrgencySafe
	default:
		return UrgencyWarning
	}
}

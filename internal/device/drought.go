package device

// DroughtLevel is the severity shown for drought state.
type DroughtLevel int

const (
	DroughtOK DroughtLevel = iota
	DroughtWarn
	DroughtBad
)

// BadDroughtStreakDays is the streak length at which drought becomes bad.
const BadDroughtStreakDays = 10.0

// String returns the level name.
func (l DroughtLevel) String() string {
	switch l {
	case DroughtOK:
		return "ok"
	case DroughtWarn:
		return "warn"
	case DroughtBad:
		return "bad"
	default:
		return "unknown"
	}
}

// ClassifyDrought derives the fleet drought level. A nil summary or no
// devices in drought is ok. A missing MaxStreakDays is treated as zero, so a
// fleet with devices in drought but no streak length reads as warn.
func ClassifyDrought(s *DroughtSummary) DroughtLevel {
	if s == nil || s.DevicesInDrought <= 0 {
		return DroughtOK
	}
	var days float64
	if s.MaxStreakDays != nil {
		days = *s.MaxStreakDays
	}
	if days >= BadDroughtStreakDays {
		return DroughtBad
	}
	return DroughtWarn
}

// ClassifyStreak derives the level for a single device streak.
func ClassifyStreak(days *float64) DroughtLevel {
	switch {
	case days == nil || *days <= 0:
		return DroughtOK
	case *days >= BadDroughtStreakDays:
		return DroughtBad
	default:
		return DroughtWarn
	}
}

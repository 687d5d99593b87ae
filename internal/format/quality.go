package format

// Tier is the badge a dataset earns from its quality score.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
	TierPremium
)

// QualityTier maps a 0-100 score onto one scale: Premium from 90, High from
// 80, Medium from 60 and Low below that.
func QualityTier(score float64) Tier {
	switch {
	case score >= 90:
		return TierPremium
	case score >= 80:
		return TierHigh
	case score >= 60:
		return TierMedium
	default:
		return TierLow
	}
}

func (t Tier) String() string {
	switch t {
	case TierPremium:
		return "premium"
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// Label is the text shown on the badge.
func (t Tier) Label() string {
	switch t {
	case TierPremium:
		return "Premium"
	case TierHigh:
		return "High Quality"
	case TierMedium:
		return "Medium Quality"
	default:
		return "Low Quality"
	}
}

// Color is the indicator color for the tier.
func (t Tier) Color() string {
	switch t {
	case TierPremium:
		return "cyan"
	case TierHigh:
		return "green"
	case TierMedium:
		return "yellow"
	default:
		return "red"
	}
}

// Class is the CSS class of the badge.
func (t Tier) Class() string {
	return "quality-" + t.String()
}

// QualityColor is the traffic-light color for a single metric.
func QualityColor(score float64) string {
	switch {
	case score >= 80:
		return "green"
	case score >= 60:
		return "yellow"
	default:
		return "red"
	}
}

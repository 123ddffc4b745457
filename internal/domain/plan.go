package domain

// Plan is a service tier controlling commission and cashback rates.
type Plan string

const (
	PlanStudent  Plan = "student"
	PlanStandard Plan = "standard"
	PlanSilver   Plan = "silver"
	PlanGold     Plan = "gold"
)

// Spending-threshold bands, cumulative RON.
const (
	firstThreshold  = 100
	secondThreshold = 300
	thirdThreshold  = 500
)

// silverCommissionFloor is the RON amount from which the silver plan
// starts charging commission.
const silverCommissionFloor = 500

// ParsePlan maps a plan name onto Plan; unknown names fall back to standard.
func ParsePlan(s string) Plan {
	switch s {
	case "student":
		return PlanStudent
	case "silver":
		return PlanSilver
	case "gold":
		return PlanGold
	default:
		return PlanStandard
	}
}

// PlanForOccupation returns the seed plan for a new user.
func PlanForOccupation(occupation string) Plan {
	if occupation == "student" {
		return PlanStudent
	}
	return PlanStandard
}

// Commission returns the fee for an amount expressed in RON.
func (p Plan) Commission(amountRON float64) float64 {
	switch p {
	case PlanStandard:
		return amountRON * 0.002
	case PlanSilver:
		if amountRON < silverCommissionFloor {
			return 0
		}
		return amountRON * 0.001
	default: // student, gold
		return 0
	}
}

// CashbackRate returns the spending-threshold cashback rate for a
// cumulative RON amount.
func (p Plan) CashbackRate(cumulativeRON float64) float64 {
	switch {
	case cumulativeRON >= thirdThreshold:
		return p.rateBand(2)
	case cumulativeRON >= secondThreshold:
		return p.rateBand(1)
	case cumulativeRON >= firstThreshold:
		return p.rateBand(0)
	default:
		return 0
	}
}

func (p Plan) rateBand(band int) float64 {
	var rates [3]float64
	switch p {
	case PlanSilver:
		rates = [3]float64{0.003, 0.004, 0.005}
	case PlanGold:
		rates = [3]float64{0.005, 0.0055, 0.007}
	default: // student and standard share the same bands
		rates = [3]float64{0.001, 0.002, 0.0025}
	}
	return rates[band]
}

// CanUpgradeTo reports whether target is a strict upgrade from p.
// The lattice is student/standard -> silver -> gold; downgrades and
// no-op upgrades are rejected.
func (p Plan) CanUpgradeTo(target Plan) bool {
	switch p {
	case PlanStudent, PlanStandard:
		return target == PlanSilver || target == PlanGold
	case PlanSilver:
		return target == PlanGold
	default:
		return false
	}
}

// UpgradeFee returns the RON fee for upgrading from p to target.
// The ok result is false when the upgrade is not allowed.
func (p Plan) UpgradeFee(target Plan) (float64, bool) {
	if !p.CanUpgradeTo(target) {
		return 0, false
	}
	switch target {
	case PlanSilver:
		return 100, true
	case PlanGold:
		if p == PlanSilver {
			return 250, true
		}
		return 350, true
	}
	return 0, false
}

package domain

// Plan is a named investment tier
type Plan struct {
	Name             string  `json:"name"`             // Display name, also the stored value
	MinAmount        float64 `json:"minAmount"`        // Inclusive lower bound
	MaxAmount        float64 `json:"maxAmount"`        // Inclusive upper bound
	ProfitPercentage float64 `json:"profitPercentage"` // Default profit over the plan term
	DurationDays     int     `json:"durationDays"`     // Plan term
}

// Plan names
const (
	PlanBasic    = "BASIC PLAN"
	PlanSilver   = "SILVER PLAN"
	PlanGolden   = "GOLDEN PLAN"
	PlanDiamond  = "DIAMOND PLAN"
	PlanPlatinum = "PLATINUM PLAN"
)

// Plans is the static tier table, ordered by band
var Plans = []Plan{
	{Name: PlanBasic, MinAmount: 50, MaxAmount: 999, ProfitPercentage: 5, DurationDays: 7},
	{Name: PlanSilver, MinAmount: 1000, MaxAmount: 4999, ProfitPercentage: 8, DurationDays: 14},
	{Name: PlanGolden, MinAmount: 5000, MaxAmount: 19999, ProfitPercentage: 12, DurationDays: 30},
	{Name: PlanDiamond, MinAmount: 20000, MaxAmount: 49999, ProfitPercentage: 15, DurationDays: 60},
	{Name: PlanPlatinum, MinAmount: 50000, MaxAmount: 100000, ProfitPercentage: 20, DurationDays: 90},
}

// FindPlan looks a plan up by name
func FindPlan(name string) (Plan, bool) {
	for _, p := range Plans {
		if p.Name == name {
			return p, true
		}
	}
	return Plan{}, false
}

// Contains reports whether amount sits inside the plan band
func (p Plan) Contains(amount float64) bool {
	return amount >= p.MinAmount && amount <= p.MaxAmount
}

package domain

// Goal ranges and defaults.
const (
	DefaultYearlyGoal   = 52
	DefaultVarietyGoal  = 5
	DefaultLifetimeGoal = 100

	MinYearlyGoal   = 1
	MaxYearlyGoal   = 365
	MinVarietyGoal  = 1
	MaxVarietyGoal  = 20
	MinLifetimeGoal = 1
	MaxLifetimeGoal = 10000
)

// Goals are the user's three reading targets. They are validated
// independently; there is no relationship between them.
type Goals struct {
	// Books to read this year.
	Yearly int `json:"yearly" validate:"gte=1,lte=365"`
	// Distinct publication decades among read books.
	Variety int `json:"variety" validate:"gte=1,lte=20"`
	// Lifetime reading milestone.
	Lifetime int `json:"lifetime" validate:"gte=1,lte=10000"`
}

// DefaultGoals returns the targets used before the user sets any.
func DefaultGoals() Goals {
	return Goals{
		Yearly:   DefaultYearlyGoal,
		Variety:  DefaultVarietyGoal,
		Lifetime: DefaultLifetimeGoal,
	}
}

// GoalKind names one of the three goals.
type GoalKind string

// Goal kinds.
const (
	GoalYearly   GoalKind = "yearly"
	GoalVariety  GoalKind = "variety"
	GoalLifetime GoalKind = "lifetime"
)

// GoalKinds lists the goals in display order.
var GoalKinds = []GoalKind{GoalYearly, GoalVariety, GoalLifetime}

// Default returns the default target for the goal.
func (k GoalKind) Default() int {
	switch k {
	case GoalYearly:
		return DefaultYearlyGoal
	case GoalVariety:
		return DefaultVarietyGoal
	case GoalLifetime:
		return DefaultLifetimeGoal
	default:
		return 0
	}
}

// InRange reports whether v is an acceptable target for the goal.
func (k GoalKind) InRange(v int) bool {
	switch k {
	case GoalYearly:
		return v >= MinYearlyGoal && v <= MaxYearlyGoal
	case GoalVariety:
		return v >= MinVarietyGoal && v <= MaxVarietyGoal
	case GoalLifetime:
		return v >= MinLifetimeGoal && v <= MaxLifetimeGoal
	default:
		return false
	}
}

// Get returns the target for kind.
func (g Goals) Get(kind GoalKind) int {
	switch kind {
	case GoalYearly:
		return g.Yearly
	case GoalVariety:
		return g.Variety
	case GoalLifetime:
		return g.Lifetime
	default:
		return 0
	}
}

// Set stores v as the target for kind.
func (g *Goals) Set(kind GoalKind, v int) {
	switch kind {
	case GoalYearly:
		g.Yearly = v
	case GoalVariety:
		g.Variety = v
	case GoalLifetime:
		g.Lifetime = v
	}
}

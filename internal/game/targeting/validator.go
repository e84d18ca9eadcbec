package targeting

// Allegiance is implemented by anything that can be selected as a target.
type Allegiance interface {
	IsPlayer() bool
}

const (
	errExactlyOne   = "exactly one target is required"
	errAllyRequired = "ally(one player) target required"
	errFoeRequired  = "enemy(one enemy) target required"
)

// ValidateArity checks the caller's selection against the target shape.
// Targets that need no selection ignore whatever was sent.
func ValidateArity[R Allegiance](t Target, selected []R) []string {
	if !t.RequiresSelection() {
		return nil
	}
	if len(selected) != 1 {
		return []string{errExactlyOne}
	}

	var errors []string
	one := selected[0]
	if t == TargetAllyOne && !one.IsPlayer() {
		errors = append(errors, errAllyRequired)
	}
	if t == TargetEnemyOne && one.IsPlayer() {
		errors = append(errors, errFoeRequired)
	}
	return errors
}

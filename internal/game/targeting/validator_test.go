package targeting

import "testing"

type fakeRef bool

func (f fakeRef) IsPlayer() bool { return bool(f) }

var (
	player = fakeRef(true)
	enemy  = fakeRef(false)
)

func TestValidateArityNoSelectionNeeded(t *testing.T) {
	for _, target := range []Target{TargetNone, TargetSelf, TargetAllyAll, TargetAllySide, TargetEnemyAll, TargetEnemySide} {
		if errs := ValidateArity(target, []fakeRef{player, enemy}); len(errs) != 0 {
			t.Errorf("%s: expected no errors, got %v", target, errs)
		}
	}
}

func TestValidateArityExactlyOne(t *testing.T) {
	for _, target := range []Target{TargetAllyOne, TargetEnemyOne, TargetAnyOne} {
		errs := ValidateArity[fakeRef](target, nil)
		if len(errs) != 1 || errs[0] != "exactly one target is required" {
			t.Errorf("%s with none: unexpected %v", target, errs)
		}
		errs = ValidateArity(target, []fakeRef{enemy, enemy})
		if len(errs) != 1 || errs[0] != "exactly one target is required" {
			t.Errorf("%s with two: unexpected %v", target, errs)
		}
	}
}

func TestValidateArityAllegiance(t *testing.T) {
	cases := []struct {
		target Target
		ref    fakeRef
		want   string
	}{
		{TargetAllyOne, enemy, "ally(one player) target required"},
		{TargetAllyOne, player, ""},
		{TargetEnemyOne, player, "enemy(one enemy) target required"},
		{TargetEnemyOne, enemy, ""},
		{TargetAnyOne, player, ""},
		{TargetAnyOne, enemy, ""},
	}
	for _, tc := range cases {
		errs := ValidateArity(tc.target, []fakeRef{tc.ref})
		if tc.want == "" {
			if len(errs) != 0 {
				t.Errorf("%s: expected no errors, got %v", tc.target, errs)
			}
			continue
		}
		if len(errs) != 1 || errs[0] != tc.want {
			t.Errorf("%s: expected %q, got %v", tc.target, tc.want, errs)
		}
	}
}

func TestParseTarget(t *testing.T) {
	got, err := ParseTarget(" enemy_one ")
	if err != nil || got != TargetEnemyOne {
		t.Fatalf("expected ENEMY_ONE, got %s (%v)", got, err)
	}
	if got, err := ParseTarget(""); err != nil || got != TargetNone {
		t.Fatalf("expected empty to parse as NONE, got %s (%v)", got, err)
	}
	if _, err := ParseTarget("EVERYONE"); err == nil {
		t.Fatalf("expected error for unknown target")
	}
	if !TargetAllySide.ReachesAllies() || TargetAllySide.ReachesEnemies() {
		t.Fatalf("unexpected side classification for ALLY_SIDE")
	}
	if FormatKeys([]string{"ENEMY:e1", "ENEMY:e2"}) != "[ENEMY:e1, ENEMY:e2]" {
		t.Fatalf("unexpected FormatKeys output")
	}
}

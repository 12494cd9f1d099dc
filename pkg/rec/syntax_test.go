package rec

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mmgbartels/merc/pkg/aterm"
)

func newTestThread(t *testing.T) *aterm.Thread {
	t.Helper()
	pool, err := aterm.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	th := pool.NewThread()
	t.Cleanup(th.Close)
	return th
}

func TestToRewriteSpec(t *testing.T) {
	th := newTestThread(t)

	syntax := SpecificationSyntax{
		Rules: []RuleSyntax{
			{Lhs: th.MustParse("plus(0, x)"), Rhs: th.MustParse("x")},
			{
				Lhs: th.MustParse("min(x, y)"),
				Rhs: th.MustParse("x"),
				Conditions: []ConditionSyntax{
					{Lhs: th.MustParse("le(x, y)"), Rhs: th.MustParse("true"), Equality: true},
				},
			},
		},
		Constructors: []Constructor{{Name: "plus", Arity: 2}, {Name: "0", Arity: 0}},
		Variables:    []string{"x", "y"},
	}

	spec := syntax.ToRewriteSpec()
	if len(spec.Rules()) != 2 {
		t.Fatalf("spec has %d rules, want 2", len(spec.Rules()))
	}
	if diff := cmp.Diff([]string{"x", "y"}, spec.Variables()); diff != "" {
		t.Fatalf("variables mismatch (-want +got):\n%s", diff)
	}
	if !spec.IsVariable(th.MustParse("x").Ref()) {
		t.Fatal("declared variable not recognised")
	}
	if spec.IsVariable(th.MustParse("plus(0, x)").Ref()) {
		t.Fatal("application recognised as variable")
	}
	if len(spec.Rules()[1].Conditions) != 1 || !spec.Rules()[1].Conditions[0].Equality {
		t.Fatal("condition lost in conversion")
	}
}

func TestMergeDeduplicatesVariables(t *testing.T) {
	th := newTestThread(t)

	base := SpecificationSyntax{
		Rules:     []RuleSyntax{{Lhs: th.MustParse("f(x)"), Rhs: th.MustParse("x")}},
		Variables: []string{"x"},
	}
	include := SpecificationSyntax{
		Rules:     []RuleSyntax{{Lhs: th.MustParse("g(x, y)"), Rhs: th.MustParse("x")}},
		Variables: []string{"x", "y"},
	}

	base.Merge(&include)
	if len(base.Rules) != 2 {
		t.Fatalf("merged rules = %d, want 2", len(base.Rules))
	}
	if diff := cmp.Diff([]string{"x", "y"}, base.Variables); diff != "" {
		t.Fatalf("merged variables mismatch (-want +got):\n%s", diff)
	}
}

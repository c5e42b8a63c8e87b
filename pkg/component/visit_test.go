package component

import "testing"

func visitTree(log *hookLog) *probe {
	root := newProbe("r", log)
	a := newProbe("a", log)
	a1 := newProbe("a1", log)
	a.Add(a1)
	b := newProbe("b", log)
	root.Add(a, b)
	return root
}

func TestVisitOrder(t *testing.T) {
	root := visitTree(&hookLog{})

	var ids []string
	Visit(root, func(c Component) VisitResult {
		ids = append(ids, c.ID())
		return Continue
	})

	want := []string{"r", "a", "a1", "b"}
	if len(ids) != len(want) {
		t.Fatalf("visited = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("visit %d = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestVisitSkipChildren(t *testing.T) {
	root := visitTree(&hookLog{})

	var ids []string
	Visit(root, func(c Component) VisitResult {
		ids = append(ids, c.ID())
		if c.ID() == "a" {
			return SkipChildren
		}
		return Continue
	})

	for _, id := range ids {
		if id == "a1" {
			t.Errorf("descended into skipped subtree: %v", ids)
		}
	}
	if ids[len(ids)-1] != "b" {
		t.Errorf("siblings not visited after skip: %v", ids)
	}
}

func TestVisitStop(t *testing.T) {
	root := visitTree(&hookLog{})

	var ids []string
	Visit(root, func(c Component) VisitResult {
		ids = append(ids, c.ID())
		if c.ID() == "a" {
			return Stop
		}
		return Continue
	})

	if len(ids) != 2 {
		t.Errorf("visited = %v, want traversal stopped after a", ids)
	}
}

func TestVisitChildrenExcludesRoot(t *testing.T) {
	root := visitTree(&hookLog{})

	var ids []string
	VisitChildren(root, func(c Component) VisitResult {
		ids = append(ids, c.ID())
		return Continue
	})

	for _, id := range ids {
		if id == "r" {
			t.Errorf("root visited: %v", ids)
		}
	}
	if len(ids) != 3 {
		t.Errorf("visited = %v, want 3 components", ids)
	}
}

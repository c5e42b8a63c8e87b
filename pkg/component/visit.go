package component

// VisitResult controls tree traversal from a visitor callback.
type VisitResult int

const (
	// Continue descends into the visited component's children.
	Continue VisitResult = iota

	// SkipChildren continues with siblings but not children.
	SkipChildren

	// Stop aborts the traversal.
	Stop
)

// Visit walks the tree rooted at c depth-first, parents before
// children, calling fn for every component including c itself.
func Visit(c Component, fn func(Component) VisitResult) {
	visit(bind(c), fn)
}

// VisitChildren walks c's subtree like Visit but does not call fn for
// c itself.
func VisitChildren(c Component, fn func(Component) VisitResult) {
	b := bind(c)
	for _, child := range b.children {
		if visit(child.base(), fn) == Stop {
			return
		}
	}
}

func visit(b *Base, fn func(Component) VisitResult) VisitResult {
	switch r := fn(b.self); r {
	case Stop:
		return Stop
	case SkipChildren:
		return Continue
	}
	for _, child := range b.children {
		if visit(child.base(), fn) == Stop {
			return Stop
		}
	}
	return Continue
}

package basic

import "github.com/loom-ui/loom/pkg/component"

// Container groups children without contributing behavior of its own.
// Its tag and body stream as written in the template, with nested
// regions bound against its children. Hiding a container hides the
// whole subtree in one step.
type Container struct {
	component.Base
}

// NewContainer returns an empty container.
func NewContainer(id string) *Container {
	return &Container{Base: component.NewBase(id)}
}

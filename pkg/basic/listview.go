package basic

import (
	"strconv"

	"github.com/loom-ui/loom/pkg/component"
)

// Row is one generated child of a ListView. Its id is the row index;
// populate attaches widgets to it that bind against the regions inside
// the list region.
type Row[T any] struct {
	component.Base

	// Index is the row's position in this pass's item list.
	Index int

	// Item is the value the row renders.
	Item T
}

// ListView repeats its markup region once per item. Rows are rebuilt
// from the item function during OnBeforeRender before the base call,
// so freshly attached rows are prepared in the same pass and stale
// rows from the previous pass are detached first.
type ListView[T any] struct {
	component.Base

	items    func() []T
	populate func(*Row[T])
	rows     []component.Component
}

// NewListView returns a list view over the items returned by items,
// filling each row with populate.
func NewListView[T any](id string, items func() []T, populate func(*Row[T])) *ListView[T] {
	return &ListView[T]{Base: component.NewBase(id), items: items, populate: populate}
}

// OnBeforeRender rebuilds the rows, then runs the base recursion over
// them.
func (v *ListView[T]) OnBeforeRender() {
	if err := v.RemoveAll(); err != nil {
		v.FailPrepare(err)
		return
	}
	var items []T
	if v.items != nil {
		items = v.items()
	}
	v.rows = v.rows[:0]
	for i, item := range items {
		row := &Row[T]{Base: component.NewBase(strconv.Itoa(i)), Index: i, Item: item}
		v.Add(row)
		if v.populate != nil {
			v.populate(row)
		}
		v.rows = append(v.rows, row)
	}
	v.Base.OnBeforeRender()
}

// Rows implements component.Repeater.
func (v *ListView[T]) Rows() []component.Component {
	out := make([]component.Component, len(v.rows))
	copy(out, v.rows)
	return out
}

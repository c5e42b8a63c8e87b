// Package loom provides the public API for the Loom web framework.
//
// This is the recommended import for most applications:
//
//	import "github.com/loom-ui/loom"
//
// Usage:
//
//	app, err := loom.New(loom.Config{
//	    Resources: loom.ResourceConfig{TemplateFolders: []string{"templates"}},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.Page("/", func(r *http.Request) (loom.Component, error) {
//	    return pages.NewHome(), nil
//	})
//	app.Run()
//
// Components themselves are built from pkg/component (the lifecycle
// model) and pkg/basic (stock widgets); the most used names are
// aliased here so simple apps get by on a single import.
package loom

import (
	"github.com/loom-ui/loom/pkg/basic"
	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/server"
)

// =============================================================================
// Component Model (pkg/component exposed at the root)
// =============================================================================

// Component is the interface every page element implements by
// embedding Base.
type Component = component.Component

// Base is the canonical Component implementation, embedded by every
// concrete component.
type Base = component.Base

// Tag is the markup tag a component renders into.
type Tag = component.Tag

// State is a component's lifecycle state.
type State = component.State

const (
	StateConstructed    = component.StateConstructed
	StateInitialized    = component.StateInitialized
	StateConfigured     = component.StateConfigured
	StateRenderPrepared = component.StateRenderPrepared
	StateRendered       = component.StateRendered
	StateRemoved        = component.StateRemoved
)

// PathSeparator joins component ids into tree paths.
const PathSeparator = component.PathSeparator

// Page is the Base variant embedded by page root components.
type Page = component.Page

// NewBase constructs the embedded Base for a component. It panics on
// an empty id.
var NewBase = component.NewBase

// NewPage constructs the embedded Page for a root component.
var NewPage = component.NewPage

// =============================================================================
// Component Interfaces
// =============================================================================

// Listener receives client events dispatched to a component.
type Listener = component.Listener

// MarkupOwner lets a component name the template it renders with.
type MarkupOwner = component.MarkupOwner

// =============================================================================
// Behaviors
// =============================================================================

// Behavior is a reusable strategy attached to a component.
type Behavior = component.Behavior

// AttributeModifier is a Behavior that sets or extends a tag attribute.
type AttributeModifier = component.AttributeModifier

var (
	ModifyAttribute = component.ModifyAttribute
	AppendAttribute = component.AppendAttribute
	AppendClass     = component.AppendClass
)

// =============================================================================
// Stock Widgets (pkg/basic)
// =============================================================================

// Container is a plain component holder.
type Container = basic.Container

// Label renders a text body.
type Label = basic.Label

// Link runs a server-side callback when clicked.
type Link = basic.Link

// Border wraps arbitrary children in shared markup.
type Border = basic.Border

// Panel is a reusable fragment with its own template.
type Panel = basic.Panel

var (
	NewContainer = basic.NewContainer
	NewLabel     = basic.NewLabel
	NewLabelFunc = basic.NewLabelFunc
	NewLink      = basic.NewLink
	NewBorder    = basic.NewBorder
	NewPanel     = basic.NewPanel
)

// ListView and Row are generic and cannot be aliased here; import
// pkg/basic directly for repeating content.

// =============================================================================
// Live Sessions
// =============================================================================

// Session is a live page session: one component tree, one event loop,
// at most one websocket.
type Session = server.Session

var (
	ErrSessionClosed      = server.ErrSessionClosed
	ErrSessionNotFound    = server.ErrSessionNotFound
	ErrMaxSessionsReached = server.ErrMaxSessionsReached
)

package markup

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/loom-ui/loom/pkg/resource"
)

// Locator resolves a logical template name to a concrete resource,
// trying style and locale suffixed candidates from most to least
// specific.
type Locator struct {
	finder resource.Finder
	style  string
}

// NewLocator returns a Locator resolving through finder.
func NewLocator(finder resource.Finder) *Locator {
	return &Locator{finder: finder}
}

// WithStyle sets the application style ("theme") tried before the
// plain name. It returns the locator for chaining.
func (l *Locator) WithStyle(style string) *Locator {
	l.style = style
	return l
}

// Candidates lists the resource names tried for name under locale, in
// resolution order. With style "dark" and locale de-AT the list for
// "checkout" is
//
//	checkout.dark.de-AT.html
//	checkout.de-AT.html
//	checkout.dark.de.html
//	checkout.de.html
//	checkout.dark.html
//	checkout.html
func (l *Locator) Candidates(name string, locale language.Tag) []string {
	var out []string
	for t := locale; t != language.Und; t = t.Parent() {
		if l.style != "" {
			out = append(out, name+"."+l.style+"."+t.String()+".html")
		}
		out = append(out, name+"."+t.String()+".html")
	}
	if l.style != "" {
		out = append(out, name+"."+l.style+".html")
	}
	return append(out, name+".html")
}

// Locate opens the most specific template available for name under
// locale. It returns the stream and the resolved resource name. When
// no candidate exists the error wraps resource.ErrNotFound.
func (l *Locator) Locate(ctx context.Context, name string, locale language.Tag) (resource.Stream, string, error) {
	for _, candidate := range l.Candidates(name, locale) {
		s, err := l.finder.Find(ctx, candidate)
		if err == nil {
			return s, candidate, nil
		}
		if !errors.Is(err, resource.ErrNotFound) {
			return nil, "", fmt.Errorf("markup: template %q: %w", candidate, err)
		}
	}
	return nil, "", fmt.Errorf("markup: template %q (locale %s): %w", name, locale, resource.ErrNotFound)
}

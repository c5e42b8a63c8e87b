package resource

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/loom-ui/loom/pkg/component"
)

// StringLoader resolves one localization source. Loaders are chained
// on the Localizer in precedence order.
type StringLoader interface {
	// Load returns the value for key under the best match for tag.
	Load(key string, tag language.Tag) (string, bool)
}

// Localizer resolves localized strings through an ordered loader
// chain, honoring the settings' missing-key policy. Construct it
// explicitly at startup with NewLocalizer; there is no lazy global.
type Localizer struct {
	settings *Settings
	loaders  []StringLoader
}

// NewLocalizer returns a localizer over the given loaders, consulting
// settings for the missing-key policy.
func NewLocalizer(settings *Settings, loaders ...StringLoader) *Localizer {
	return &Localizer{settings: settings, loaders: loaders}
}

// AddLoader appends a loader at the end of the chain.
func (l *Localizer) AddLoader(loader StringLoader) {
	l.loaders = append(l.loaders, loader)
}

// Get resolves key for tag. On a miss the caller's def satisfies the
// lookup when UseDefaultOnMissing is set; otherwise ErrorOnMissing
// turns the miss into an error wrapping ErrMissingString, and failing
// both, the key comes back bracketed so broken pages stay readable.
func (l *Localizer) Get(key string, tag language.Tag, def string) (string, error) {
	for _, loader := range l.loaders {
		if v, ok := loader.Load(key, tag); ok {
			return v, nil
		}
	}
	if def != "" && l.settings.UseDefaultOnMissing {
		return def, nil
	}
	if l.settings.ErrorOnMissing {
		return "", fmt.Errorf("localized string %q (%s): %w", key, tag, ErrMissingString)
	}
	return "[" + key + "]", nil
}

// GetFor resolves key for a component, trying scope-prefixed keys
// derived from the component's markup-owning ancestry before the bare
// key. A label inside the "cart" panel first tries "cart.total", then
// "total".
func (l *Localizer) GetFor(c component.Component, key string, tag language.Tag, def string) (string, error) {
	for _, scope := range scopesFor(c) {
		for _, loader := range l.loaders {
			if v, ok := loader.Load(scope+"."+key, tag); ok {
				return v, nil
			}
		}
	}
	return l.Get(key, tag, def)
}

// scopesFor lists the markup-owner names from the component outward,
// innermost first, ending with the root id.
func scopesFor(c component.Component) []string {
	var scopes []string
	for cur := c; cur != nil; cur = cur.Parent() {
		if owner, ok := cur.(component.MarkupOwner); ok {
			scopes = append(scopes, owner.MarkupName())
			continue
		}
		if cur.Parent() == nil {
			scopes = append(scopes, cur.ID())
		}
	}
	return scopes
}

// Bundle is a StringLoader backed by per-locale YAML files named
// name.<locale>.yaml, plus an optional unsuffixed name.yaml fallback.
// Nested YAML maps flatten to dotted keys.
type Bundle struct {
	name    string
	matcher language.Matcher
	tables  []map[string]string
}

// LoadBundle reads every locale file for name under fsys. At least one
// file must exist. The unsuffixed file, when present, is the fallback
// for locales no suffixed file matches.
func LoadBundle(fsys fs.FS, name string) (*Bundle, error) {
	matches, err := fs.Glob(fsys, name+".*.yaml")
	if err != nil {
		return nil, fmt.Errorf("resource: bundle %q: %w", name, err)
	}
	sort.Strings(matches)

	type entry struct {
		tag   language.Tag
		table map[string]string
	}
	var entries []entry

	if data, err := fs.ReadFile(fsys, name+".yaml"); err == nil {
		table, err := parseBundleFile(name+".yaml", data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{tag: language.Und, table: table})
	}

	for _, m := range matches {
		locale := strings.TrimSuffix(strings.TrimPrefix(m, name+"."), ".yaml")
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("resource: bundle %q: bad locale %q: %w", name, locale, err)
		}
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return nil, fmt.Errorf("resource: bundle %q: %w", name, err)
		}
		table, err := parseBundleFile(m, data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{tag: tag, table: table})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("resource: bundle %q: %w", name, ErrNotFound)
	}

	tags := make([]language.Tag, len(entries))
	tables := make([]map[string]string, len(entries))
	for i, e := range entries {
		tags[i] = e.tag
		tables[i] = e.table
	}
	return &Bundle{
		name:    name,
		matcher: language.NewMatcher(tags),
		tables:  tables,
	}, nil
}

// Load implements StringLoader.
func (b *Bundle) Load(key string, tag language.Tag) (string, bool) {
	_, i, _ := b.matcher.Match(tag)
	v, ok := b.tables[i][key]
	return v, ok
}

func parseBundleFile(file string, data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", file, err)
	}
	table := make(map[string]string)
	flatten("", raw, table)
	return table, nil
}

func flatten(prefix string, raw map[string]any, out map[string]string) {
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

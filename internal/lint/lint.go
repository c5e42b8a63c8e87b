package lint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/markup"
)

// Severity grades an issue.
type Severity int

const (
	// SeverityWarning marks issues the framework tolerates at runtime
	// but that usually indicate a mistake.
	SeverityWarning Severity = iota

	// SeverityError marks issues that would fail at runtime.
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is one finding in a checked project.
type Issue struct {
	// File is the offending file.
	File string

	// Code identifies the check that produced the issue, e.g.
	// "template/parse" or "bundle/missing".
	Code string

	Severity Severity

	// Message describes the problem.
	Message string

	// Hint suggests a fix, when one is known.
	Hint string
}

func (i Issue) String() string {
	return i.File + ": " + i.Message
}

// Config selects what Run examines.
type Config struct {
	// TemplateFolders are directories scanned recursively for .html
	// templates.
	TemplateFolders []string

	// BundleDir is the directory holding YAML string bundles. Empty
	// skips bundle checks.
	BundleDir string

	// BundleNames are the bundle base names verified in BundleDir.
	BundleNames []string
}

// Report is the outcome of one Run.
type Report struct {
	// Issues in file order.
	Issues []Issue

	// Templates is the number of template files examined.
	Templates int

	// Bundles is the number of bundle files examined.
	Bundles int
}

func (r *Report) add(i Issue) {
	r.Issues = append(r.Issues, i)
}

// Errors counts error-severity issues.
func (r *Report) Errors() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Warnings counts warning-severity issues.
func (r *Report) Warnings() int {
	return len(r.Issues) - r.Errors()
}

// Clean reports whether nothing was found.
func (r *Report) Clean() bool {
	return len(r.Issues) == 0
}

// Run checks every template folder and bundle the config names.
func Run(cfg Config) *Report {
	rep := &Report{}
	for _, folder := range cfg.TemplateFolders {
		checkTemplateFolder(rep, folder)
	}
	if cfg.BundleDir != "" {
		checkBundles(rep, cfg)
	}
	sort.SliceStable(rep.Issues, func(i, j int) bool {
		if rep.Issues[i].File != rep.Issues[j].File {
			return rep.Issues[i].File < rep.Issues[j].File
		}
		return rep.Issues[i].Code < rep.Issues[j].Code
	})
	return rep
}

// variant is one parsed template file within a logical name group.
type variant struct {
	file    string
	regions []string
}

func checkTemplateFolder(rep *Report, folder string) {
	if _, err := os.Stat(folder); err != nil {
		rep.add(Issue{
			File:     folder,
			Code:     "fs",
			Severity: SeverityError,
			Message:  "template folder not readable: " + err.Error(),
		})
		return
	}

	// Variants group by directory plus the part of the file name
	// before the first dot, the same rule the locator resolves names
	// with at runtime.
	groups := make(map[string][]variant)

	root := os.DirFS(folder)
	fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			rep.add(Issue{
				File:     filepath.Join(folder, filepath.FromSlash(p)),
				Code:     "fs",
				Severity: SeverityError,
				Message:  err.Error(),
			})
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		file := filepath.Join(folder, filepath.FromSlash(p))
		rep.Templates++

		base, _, _ := strings.Cut(d.Name(), ".")
		logical := path.Join(path.Dir(p), base)

		f, err := os.Open(file)
		if err != nil {
			rep.add(Issue{File: file, Code: "fs", Severity: SeverityError, Message: err.Error()})
			return nil
		}
		m, perr := markup.Parse(logical, f)
		f.Close()
		if perr != nil {
			rep.add(parseIssue(file, perr))
			return nil
		}

		groups[logical] = append(groups[logical], variant{
			file:    file,
			regions: regionPaths(m.Segments, ""),
		})
		return nil
	})

	checkVariantDrift(rep, groups)
}

// parseIssue converts a parser rejection into an issue, with a hint
// for the mistakes that have an obvious fix.
func parseIssue(file string, err error) Issue {
	issue := Issue{File: file, Code: "template/parse", Severity: SeverityError, Message: err.Error()}
	switch {
	case errors.Is(err, markup.ErrEmptyID):
		issue.Hint = "give the element a " + markup.Attribute + " value or remove the attribute"
	case errors.Is(err, markup.ErrDuplicateID):
		issue.Hint = "sibling component ids must be unique; rename one of the elements"
	case errors.Is(err, markup.ErrUnclosed):
		issue.Hint = "add the missing end tag"
	}
	return issue
}

// regionPaths lists every region in segs as a path of ids, depth
// first, so variants can be compared structurally.
func regionPaths(segs []markup.Segment, prefix string) []string {
	var paths []string
	for _, s := range segs {
		r, ok := s.(*markup.Region)
		if !ok {
			continue
		}
		p := r.LID
		if prefix != "" {
			p = prefix + component.PathSeparator + r.LID
		}
		paths = append(paths, p)
		paths = append(paths, regionPaths(r.Body, p)...)
	}
	return paths
}

// checkVariantDrift compares locale and style variants of a template
// against its base file. A region missing from a variant means the
// component bound to it never renders there.
func checkVariantDrift(rep *Report, groups map[string][]variant) {
	for logical, vars := range groups {
		if len(vars) < 2 {
			continue
		}

		baseFile := path.Base(logical) + ".html"
		var base *variant
		for i := range vars {
			if filepath.Base(vars[i].file) == baseFile {
				base = &vars[i]
				break
			}
		}
		if base == nil {
			continue
		}

		baseSet := toSet(base.regions)
		for i := range vars {
			v := &vars[i]
			if v == base {
				continue
			}
			vSet := toSet(v.regions)
			for _, p := range base.regions {
				if !vSet[p] {
					rep.add(Issue{
						File:     v.file,
						Code:     "template/drift",
						Severity: SeverityWarning,
						Message:  fmt.Sprintf("missing region %q present in %s", p, baseFile),
						Hint:     "the component bound to it will not render in this variant",
					})
				}
			}
			for _, p := range v.regions {
				if !baseSet[p] {
					rep.add(Issue{
						File:     v.file,
						Code:     "template/drift",
						Severity: SeverityWarning,
						Message:  fmt.Sprintf("region %q does not appear in %s", p, baseFile),
					})
				}
			}
		}
	}
}

func toSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}

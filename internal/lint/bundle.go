package lint

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// checkBundles verifies the YAML string bundles for every configured
// name: files must exist and parse, locale suffixes must be well
// formed, and locale files must not lose keys the base file defines.
func checkBundles(rep *Report, cfg Config) {
	entries, err := os.ReadDir(cfg.BundleDir)
	if err != nil {
		rep.add(Issue{
			File:     cfg.BundleDir,
			Code:     "fs",
			Severity: SeverityError,
			Message:  "bundle directory not readable: " + err.Error(),
		})
		return
	}

	for _, name := range cfg.BundleNames {
		checkBundle(rep, cfg.BundleDir, name, entries)
	}
}

func checkBundle(rep *Report, dir, name string, entries []os.DirEntry) {
	baseName := name + ".yaml"
	var files []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() {
			continue
		}
		if n == baseName || (strings.HasPrefix(n, name+".") && strings.HasSuffix(n, ".yaml")) {
			files = append(files, n)
		}
	}

	if len(files) == 0 {
		rep.add(Issue{
			File:     filepath.Join(dir, baseName),
			Code:     "bundle/none",
			Severity: SeverityError,
			Message:  fmt.Sprintf("bundle %q has no files", name),
			Hint:     "create " + baseName + " or drop the bundle from the configuration",
		})
		return
	}

	var base map[string]string
	haveBase := false
	for _, n := range files {
		if n == baseName {
			haveBase = true
			break
		}
	}
	if haveBase {
		rep.Bundles++
		base, _ = readBundleFile(rep, filepath.Join(dir, baseName))
	} else {
		rep.add(Issue{
			File:     filepath.Join(dir, baseName),
			Code:     "bundle/base",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("bundle %q has no base file", name),
			Hint:     "add " + baseName + " as the fallback for unmatched locales",
		})
	}

	for _, n := range files {
		if n == baseName {
			continue
		}
		file := filepath.Join(dir, n)
		rep.Bundles++

		locale := strings.TrimSuffix(strings.TrimPrefix(n, name+"."), ".yaml")
		if _, err := language.Parse(locale); err != nil {
			rep.add(Issue{
				File:     file,
				Code:     "bundle/locale",
				Severity: SeverityError,
				Message:  fmt.Sprintf("bad locale suffix %q: %v", locale, err),
			})
			continue
		}

		table, ok := readBundleFile(rep, file)
		if !ok || base == nil {
			continue
		}
		reportMissingKeys(rep, file, baseName, base, table)
	}
}

// reportMissingKeys flags keys the base file defines that a locale
// file lost, capped so one stale file does not flood the report.
func reportMissingKeys(rep *Report, file, baseName string, base, table map[string]string) {
	var missing []string
	for k := range base {
		if _, ok := table[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return
	}
	sort.Strings(missing)

	const maxShown = 5
	shown := missing
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}
	msg := fmt.Sprintf("missing %d key(s) from %s: %s", len(missing), baseName, strings.Join(shown, ", "))
	if len(missing) > maxShown {
		msg += fmt.Sprintf(" and %d more", len(missing)-maxShown)
	}

	rep.add(Issue{
		File:     file,
		Code:     "bundle/missing",
		Severity: SeverityWarning,
		Message:  msg,
		Hint:     "lookups fall back to the base language for these keys",
	})
}

// readBundleFile parses one YAML bundle file into flattened keys.
func readBundleFile(rep *Report, file string) (map[string]string, bool) {
	data, err := os.ReadFile(file)
	if err != nil {
		rep.add(Issue{File: file, Code: "fs", Severity: SeverityError, Message: err.Error()})
		return nil, false
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		rep.add(Issue{
			File:     file,
			Code:     "bundle/parse",
			Severity: SeverityError,
			Message:  "not valid YAML: " + err.Error(),
		})
		return nil, false
	}

	table := make(map[string]string)
	flattenKeys("", raw, table)
	return table, true
}

// flattenKeys joins nested YAML maps into dot-separated keys, the
// shape the localizer resolves at runtime.
func flattenKeys(prefix string, raw map[string]any, out map[string]string) {
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flattenKeys(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

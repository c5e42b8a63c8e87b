// Package lint checks the sources of a Loom project without running
// an application.
//
// Templates are parsed with the same parser the framework uses at
// runtime, so everything the renderer would reject is reported ahead
// of time: malformed HTML, empty or duplicate data-lid values, and
// unclosed component elements. Locale and style variants of a template
// are compared against the base file, because a region missing from a
// variant silently drops the component bound to it.
//
// YAML string bundles are verified the same way: files must parse,
// locale suffixes must be well formed, and keys defined in the base
// file are flagged when a locale file lost them.
//
// # Usage
//
//	report := lint.Run(lint.Config{
//	    TemplateFolders: []string{"templates"},
//	    BundleDir:       "bundles",
//	    BundleNames:     []string{"app"},
//	})
//	for _, issue := range report.Issues {
//	    fmt.Println(issue)
//	}
package lint

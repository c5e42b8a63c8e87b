// Package scaffold provides embedded project layouts for loom new.
//
// Each layout is a map of relative paths to file contents. Contents
// run through text/template before writing, so files can reference
// the project name and module path.
//
// # Available layouts
//
//   - minimal: a single static page
//   - counter: a page with a live click counter
//
// # Usage
//
//	tmpl, err := scaffold.Get("counter")
//	if err != nil {
//	    return err
//	}
//	err = tmpl.Create(dir, scaffold.Config{
//	    ProjectName: "my-app",
//	    ModulePath:  "my-app",
//	})
package scaffold

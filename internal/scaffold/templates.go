package scaffold

func minimalTemplate() *Template {
	return &Template{
		Name:        "minimal",
		Description: "A single static page",
		Files: map[string]string{
			"go.mod": `module {{.ModulePath}}

go 1.23
`,
			"main.go": `package main

import (
	"log"
	"net/http"

	"github.com/loom-ui/loom"
)

func main() {
	app, err := loom.New(loom.Config{DevMode: true})
	if err != nil {
		log.Fatal(err)
	}

	app.Page("/", func(r *http.Request) (loom.Component, error) {
		page := loom.NewContainer("home")
		page.Add(loom.NewLabel("greeting", "Hello from {{.ProjectName}}!"))
		return page, nil
	})

	log.Fatal(app.Run())
}
`,
			"templates/home.html": `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>{{.ProjectName}}</title>
</head>
<body>
  <h1 data-lid="greeting">Hello</h1>
</body>
</html>
`,
			".loom.yaml": `templates:
  - templates
`,
			".gitignore": `{{.ProjectName}}
*.log
`,
			"README.md": `# {{.ProjectName}}

{{.Description}}

## Run

    go run .

The app listens on http://localhost:8080.

## Check

    loom check

Verifies the templates under templates/.
`,
		},
	}
}

func counterTemplate() *Template {
	return &Template{
		Name:        "counter",
		Description: "A page with a live click counter",
		Files: map[string]string{
			"go.mod": `module {{.ModulePath}}

go 1.23
`,
			"main.go": `package main

import (
	"log"
	"net/http"
	"strconv"

	"github.com/loom-ui/loom"
)

func counterPage(r *http.Request) (loom.Component, error) {
	page := loom.NewContainer("counter")

	var clicks int
	count := loom.NewLabelFunc("count", func() string {
		return strconv.Itoa(clicks)
	})
	page.Add(loom.NewLink("inc", func() error {
		clicks++
		count.Refresh()
		return nil
	}))
	page.Add(count)

	return page, nil
}

func main() {
	app, err := loom.New(loom.Config{DevMode: true})
	if err != nil {
		log.Fatal(err)
	}

	app.Page("/", counterPage)

	log.Fatal(app.Run())
}
`,
			"templates/counter.html": `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>{{.ProjectName}}</title>
</head>
<body>
  <h1>{{.ProjectName}}</h1>
  <p>
    <a href="#" data-lid="inc">Count up</a>
    <span data-lid="count">0</span>
  </p>
</body>
</html>
`,
			".loom.yaml": `templates:
  - templates
`,
			".gitignore": `{{.ProjectName}}
*.log
`,
			"README.md": `# {{.ProjectName}}

{{.Description}}

Every click travels to the server over the live channel; the server
re-renders the counter label and sends the replacement back.

## Run

    go run .

The app listens on http://localhost:8080.
`,
		},
	}
}

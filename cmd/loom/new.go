package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loom-ui/loom/internal/scaffold"
)

func newCmd() *cobra.Command {
	var (
		layout      string
		description string
		skipPrompts bool
	)

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new Loom project",
		Long: `Create a new Loom project with the specified name.

Layouts:
  minimal   A single static page (default)
  counter   A page with a live click counter

Examples:
  loom new my-app
  loom new my-app --layout=counter`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(args[0], layout, description, skipPrompts)
		},
	}

	cmd.Flags().StringVarP(&layout, "layout", "l", "minimal", "Project layout ("+strings.Join(scaffold.List(), ", ")+")")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	cmd.Flags().BoolVarP(&skipPrompts, "yes", "y", false, "Skip prompts and use defaults")

	return cmd
}

func runNew(name, layout, description string, skipPrompts bool) error {
	printBanner()
	fmt.Println("  Creating a new Loom project...")
	fmt.Println()

	if !isValidProjectName(name) {
		return fmt.Errorf("invalid project name %q: use letters, numbers, and hyphens, not starting with a digit", name)
	}

	projectDir, err := filepath.Abs(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(projectDir); !os.IsNotExist(err) {
		return fmt.Errorf("directory %q already exists", name)
	}

	if !skipPrompts && description == "" {
		description, err = promptDescription()
		if err != nil {
			return err
		}
	}
	if description == "" {
		description = "A Loom web application"
	}

	tmpl, err := scaffold.Get(layout)
	if err != nil {
		return err
	}

	info("Creating project directory...")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return err
	}

	cfg := scaffold.Config{
		ProjectName: name,
		ModulePath:  name,
		Description: description,
	}
	info("Expanding the %q layout...", layout)
	if err := tmpl.Create(projectDir, cfg); err != nil {
		os.RemoveAll(projectDir)
		return err
	}

	info("Resolving dependencies...")
	if err := goGetLoom(projectDir); err != nil {
		warn("Could not fetch github.com/loom-ui/loom: %v", err)
		warn("Run 'go mod tidy' inside the project before the first build")
	}

	fmt.Println()
	success("Created %s/", name)
	fmt.Println()
	fmt.Println("  To get started:")
	fmt.Println()
	fmt.Printf("    cd %s\n", name)
	fmt.Println("    go run .")
	fmt.Println()
	fmt.Println("  Your app will be running at http://localhost:8080")
	fmt.Println()

	return nil
}

func promptDescription() (string, error) {
	fmt.Printf("? Description: ")
	desc, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(desc), nil
}

func isValidProjectName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// goGetLoom pins the framework dependency and tidies the fresh module.
func goGetLoom(dir string) error {
	get := exec.Command("go", "get", "github.com/loom-ui/loom@latest")
	get.Dir = dir
	get.Stdout = os.Stdout
	get.Stderr = os.Stderr
	if err := get.Run(); err != nil {
		return err
	}

	tidy := exec.Command("go", "mod", "tidy")
	tidy.Dir = dir
	return tidy.Run()
}

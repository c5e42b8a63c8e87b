package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loom-ui/loom/internal/lint"
)

func checkCmd() *cobra.Command {
	var (
		templateFolders []string
		bundleDir       string
		bundleNames     []string
	)

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Check templates and bundles for problems",
		Long: `Check parses every template below the project's template folders with
the framework parser and verifies its YAML string bundles, without
starting the application.

Settings come from .loom.yaml in the project directory when present:

  templates:
    - templates
  bundles:
    dir: bundles
    names: [app]

Flags override the file. Paths are relative to the project directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runCheck(dir, templateFolders, bundleDir, bundleNames)
		},
	}

	cmd.Flags().StringSliceVarP(&templateFolders, "templates", "t", nil, "Template folders to scan")
	cmd.Flags().StringVar(&bundleDir, "bundle-dir", "", "Directory holding YAML string bundles")
	cmd.Flags().StringSliceVar(&bundleNames, "bundles", nil, "Bundle names to verify")

	return cmd
}

func runCheck(dir string, templateFolders []string, bundleDir string, bundleNames []string) error {
	v := viper.New()
	v.SetConfigName(".loom")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetDefault("templates", []string{"templates"})
	v.SetDefault("bundles.names", []string{"app"})
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read .loom.yaml: %w", err)
		}
	}

	if len(templateFolders) == 0 {
		templateFolders = v.GetStringSlice("templates")
	}
	if bundleDir == "" {
		bundleDir = v.GetString("bundles.dir")
	}
	if len(bundleNames) == 0 {
		bundleNames = v.GetStringSlice("bundles.names")
	}

	cfg := lint.Config{BundleNames: bundleNames}
	for _, folder := range templateFolders {
		cfg.TemplateFolders = append(cfg.TemplateFolders, insideDir(dir, folder))
	}
	if bundleDir != "" {
		cfg.BundleDir = insideDir(dir, bundleDir)
	}

	report := lint.Run(cfg)

	for _, issue := range report.Issues {
		if issue.Severity == lint.SeverityError {
			errorMsg("%s", issue)
		} else {
			warn("%s", issue)
		}
		if issue.Hint != "" {
			info("hint: %s", issue.Hint)
		}
	}

	if report.Clean() {
		success("%d template file(s) and %d bundle file(s), no problems", report.Templates, report.Bundles)
		return nil
	}

	fmt.Println()
	if report.Errors() > 0 {
		return fmt.Errorf("%d error(s), %d warning(s)", report.Errors(), report.Warnings())
	}
	warn("%d warning(s)", report.Warnings())
	return nil
}

// insideDir resolves a configured path against the project directory.
func insideDir(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

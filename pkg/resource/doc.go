// Package resource locates and configures the static inputs a loom
// application consumes: markup templates, localization bundles, and
// the settings that govern them.
//
// Settings is constructed explicitly at application startup and passed
// by reference to collaborators; nothing in this package initializes
// lazily behind a global.
//
// # Finders
//
// A Finder resolves a resource name to a Stream. PathFinder searches
// an ordered list of disk folders and accepts more folders after
// construction; FSFinder serves from an fs.FS (typically an embed.FS
// in production builds); S3Finder reads from a bucket; MapFinder holds
// contents in memory for tests; ChainFinder composes any of them.
// Settings.AddResourceFolder only works when the configured finder has
// path-style configuration, mirroring the capability check the
// ConfigError reports.
//
// # Localization
//
// Localizer resolves strings through an ordered loader chain. Bundle
// loads per-locale YAML files (name.en.yaml, name.de.yaml, plus an
// unsuffixed name.yaml default) and matches requested locales with
// language fallback. Missing keys follow the settings flags: the
// caller's default first when UseDefaultOnMissing is set, an error
// when ErrorOnMissing is set, a bracketed key otherwise.
package resource

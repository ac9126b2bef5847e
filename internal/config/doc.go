// Package config loads and merges brief configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (BRIEF_PROVIDER, BRIEF_MODEL, BRIEF_MAX_TOKENS, etc.)
//  3. Config file ($XDG_CONFIG_HOME/brief/config.yaml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config

package summary

import (
	_ "embed"
	"os"
)

//go:embed prompts/review-summary.md
var builtinInstructions string

// BuiltinInstructions returns the instruction text shipped with the binary.
func BuiltinInstructions() string { return builtinInstructions }

// LoadInstructions returns the system instruction text. An empty path
// selects the built-in prompt. A file that cannot be read yields empty
// instructions and a *ConfigurationError for the caller to log.
func LoadInstructions(path string) (string, error) {
	if path == "" {
		return builtinInstructions, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ConfigurationError{Path: path, Err: err}
	}
	return string(data), nil
}

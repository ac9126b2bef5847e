package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dshills/brief/internal/config"
	"github.com/dshills/brief/internal/providers"
	"github.com/dshills/brief/internal/tokens"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type modelInfo struct {
	Provider string
	Models   []string
}

var knownModels = []modelInfo{
	{
		Provider: "openai",
		Models: []string{
			"gpt-3.5-turbo",
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4.1-mini",
			"gpt-5.2",
		},
	},
	{
		Provider: "anthropic",
		Models: []string{
			"claude-sonnet-4-5",
			"claude-haiku-4-5",
		},
	},
	{
		Provider: "gemini",
		Models: []string{
			"gemini-3-flash-preview",
			"gemini-3-pro-preview",
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
	},
	{
		Provider: "ollama",
		Models: []string{
			"llama3.3",
			"llama3.2",
			"llama3.1",
			"codellama",
			"qwen2.5-coder",
			"deepseek-coder-v2",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers, models and token estimation profiles",
	Run: func(cmd *cobra.Command, args []string) {
		for _, info := range knownModels {
			fmt.Fprintf(os.Stdout, "%s:\n", info.Provider)
			for _, m := range info.Models {
				p := tokens.ProfileFor(m)
				fmt.Fprintf(os.Stdout, "  - %s (profile: %s)\n", m, p.Family)
			}
			fmt.Fprintln(os.Stdout)
		}

		fmt.Fprintln(os.Stdout, "Token estimation profiles:")
		fmt.Fprintf(os.Stdout, "  %-10s %-8s %-12s %-8s %s\n", "FAMILY", "PREFIX", "CHARS/TOKEN", "OVERHEAD", "BUFFER")
		for _, p := range tokens.Profiles() {
			prefix := p.Family.Prefix()
			if prefix == "" {
				prefix = "*"
			}
			fmt.Fprintf(os.Stdout, "  %-10s %-8s %-12.1f %-8d %.2f\n",
				p.Family, prefix, p.CharsPerToken, p.MessageOverhead, p.SafetyBuffer)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		providerName := cfg.Provider
		fmt.Fprintf(os.Stdout, "Checking %s (%s)...\n", providerName, cfg.Model)

		p, err := providers.New(providerName, cfg.Model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitUsageError
			}
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err = p.Complete(ctx, providers.CompletionRequest{
			Messages: []providers.Message{
				{Role: providers.RoleSystem, Content: "Respond with exactly: ok"},
				{Role: providers.RoleUser, Content: "ping"},
			},
			MaxTokens: 10,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		fmt.Fprintf(os.Stdout, "OK: %s is configured and responding\n", providerName)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
}

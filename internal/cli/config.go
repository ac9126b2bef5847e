package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/brief/internal/budget"
	"github.com/dshills/brief/internal/config"
	"github.com/dshills/brief/internal/summary"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage brief configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "Config file already exists at %s\n", path)
			return nil
		}

		cfg := config.Default()
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value in the config file. Keys: " + strings.Join(config.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("not saved: %w", err)
		}

		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}

		fmt.Fprint(os.Stdout, string(data))
		fmt.Fprintln(os.Stdout)
		writeEffectiveLimits(os.Stdout, cfg)
		return nil
	},
}

// writeEffectiveLimits prints the budget a request under cfg actually gets:
// the estimation profile, the resolved per-file cap and what the
// instructions consume.
func writeEffectiveLimits(w io.Writer, cfg config.Config) {
	instructions, err := summary.LoadInstructions(cfg.InstructionsFile)
	source := "built-in"
	if cfg.InstructionsFile != "" {
		source = cfg.InstructionsFile
	}
	if err != nil {
		source += " (unreadable, using none)"
	}
	svc := summary.NewService(summary.Config{
		Model:         cfg.Model,
		Instructions:  instructions,
		MaxTokens:     cfg.MaxTokens,
		MaxFileTokens: cfg.MaxFileTokens,
	}, nil)

	p := svc.Estimator().Profile()
	capNote := fmt.Sprintf("%d%% of budget", budget.DefaultCapPercent)
	if cfg.MaxFileTokens != nil {
		capNote = "maxFileTokens"
	}

	fmt.Fprintln(w, "# Effective limits")
	fmt.Fprintf(w, "#   profile:       %s (%.1f chars/token, +%d overhead, x%.2f)\n",
		p.Family, p.CharsPerToken, p.MessageOverhead, p.SafetyBuffer)
	fmt.Fprintf(w, "#   total budget:  %d tokens\n", cfg.MaxTokens)
	fmt.Fprintf(w, "#   per-file cap:  %d tokens (%s)\n", svc.PerItemCap(), capNote)
	fmt.Fprintf(w, "#   instructions:  %d tokens (%s)\n", svc.SystemTokens(), source)
	fmt.Fprintf(w, "#   for files:     %d tokens\n", max(cfg.MaxTokens-svc.SystemTokens(), 0))
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
}

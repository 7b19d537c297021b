package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/marquee/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, field values and environment variable substitution.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigTest,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Prints the configuration in use, defaults applied and secrets masked.",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configTestCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Printf("# %s\n", path)
	} else {
		fmt.Println("# built-in defaults")
	}
	return cfg.Encode(os.Stdout)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			return err
		}
		path = found
	}

	fmt.Printf("Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			printConfigErrors(configErr)
			return errors.New("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(cfg)
	fmt.Println("\nConfiguration valid!")
	return nil
}

func printConfigErrors(e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Println("Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Printf("  - %s\n", m)
		}
		fmt.Println()
	}

	if len(e.Errors) > 0 {
		fmt.Println("Validation errors:")
		for _, err := range e.Errors {
			fmt.Printf("  - %s\n", err)
		}
		fmt.Println()
	}
}

func printConfigSummary(cfg *config.Config) {
	fmt.Println("Configuration Summary:")
	fmt.Printf("  Backend:    %s (timeout %s)\n", cfg.Backend.BaseURL, cfg.Backend.Timeout)
	tmdbState := "disabled"
	if cfg.TMDB.APIKey != "" {
		tmdbState = fmt.Sprintf("enabled, %d retries, cache %s", cfg.TMDB.MaxRetries, cfg.TMDB.CacheTTL)
	}
	fmt.Printf("  TMDB:       %s\n", tmdbState)
	fmt.Printf("  Cache TTL:  %s\n", cfg.Cache.TTL)
	fmt.Printf("  Debounce:   suggestions %s, refresh %s\n", cfg.Session.SuggestionDelay, cfg.Session.RefreshDelay)
	fmt.Printf("  Storage:    %s\n", cfg.Storage.Path)
	if cfg.Redis != nil {
		fmt.Printf("  Redis:      %s (db %d)\n", cfg.Redis.Addr, cfg.Redis.DB)
	}
	fmt.Printf("  Log:        %s (%s)\n", cfg.Log.Level, cfg.Log.Format)
	if cfg.Metrics.Addr != "" {
		fmt.Printf("  Metrics:    %s\n", cfg.Metrics.Addr)
	}
}

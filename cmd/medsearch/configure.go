package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iishyfishyy/medsearch/internal/config"
	"github.com/iishyfishyy/medsearch/internal/ui"
)

func newConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Create or update the medsearch configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigure,
	}
}

func runConfigure(cmd *cobra.Command, args []string) error {
	ui.ShowSection("medsearch Configuration")

	cfg, err := loadConfigFile()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg == nil {
		ui.ShowInfo("No configuration found. Starting from defaults.")
		cfg = config.Default()
	} else {
		ui.ShowInfo("Updating existing configuration.")
	}

	if ui.IsInteractive() {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	}

	for _, warning := range cfg.Validate() {
		ui.ShowWarning(warning)
	}

	path, err := saveConfigFile(cfg)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	displayConfig(cfg)
	ui.ShowSuccess(fmt.Sprintf("Configuration saved to %s", path))

	return nil
}

// promptConfig walks the user through the settings that matter most
func promptConfig(cfg *config.Config) error {
	driver, err := ui.Select("Storage:",
		[]string{string(config.StorageSQLite), string(config.StorageMemory)},
		string(cfg.Storage.Driver))
	if err != nil {
		return err
	}
	cfg.Storage.Driver = config.StorageDriver(driver)

	if cfg.Storage.Driver == config.StorageSQLite {
		dbFile, err := ui.PromptInput("Database path:", cfg.Storage.Path)
		if err != nil {
			return err
		}
		cfg.Storage.Path = dbFile
	}

	topK, err := ui.PromptInput("Default number of results:", strconv.Itoa(cfg.Search.TopK))
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(topK)
	if err != nil {
		return fmt.Errorf("invalid number of results %q: %w", topK, err)
	}
	cfg.Search.TopK = n

	cfg.Extract.Enabled, err = ui.Confirm("Extract medications, lab values and dates when adding documents?", cfg.Extract.Enabled)
	if err != nil {
		return err
	}
	cfg.Extract.ClassifyType, err = ui.Confirm("Guess the document type when none is given?", cfg.Extract.ClassifyType)
	if err != nil {
		return err
	}

	return nil
}

// displayConfig shows a summary of the configuration
func displayConfig(cfg *config.Config) {
	fmt.Println()
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Println("Storage:")
	fmt.Printf("  Driver: %s\n", cfg.Storage.Driver)
	if cfg.Storage.Driver == config.StorageSQLite {
		fmt.Printf("  Path:   %s", cfg.Storage.Path)
		if _, err := os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
			gray.Print(" (not created yet)")
		}
		fmt.Println()
	}

	cyan.Println("Search:")
	fmt.Printf("  Top K:          %d\n", cfg.Search.TopK)
	fmt.Printf("  Max features:   %d\n", cfg.Search.MaxFeatures)
	fmt.Printf("  Min similarity: %.2f\n", cfg.Search.MinSimilarity)

	cyan.Println("Extraction:")
	fmt.Printf("  Entities:       %t\n", cfg.Extract.Enabled)
	fmt.Printf("  Classify type:  %t\n", cfg.Extract.ClassifyType)
	fmt.Println()
}

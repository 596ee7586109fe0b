// Package main provides hubcheck, a diagnostic CLI for the provider hub:
// it prints provider status and runs one-off test completions.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/b0b-collective/provider-hub/config"
	"github.com/b0b-collective/provider-hub/services/dispatch"
	"github.com/b0b-collective/provider-hub/services/providers"
	"github.com/b0b-collective/provider-hub/services/providers/anthropic"
	"github.com/b0b-collective/provider-hub/services/providers/openaicompat"
)

var (
	flagProvider    string
	flagSystem      string
	flagModel       string
	flagMaxTokens   int
	flagTemperature float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hubcheck",
		Short: "Diagnostics for the AI provider hub",
		Long: `hubcheck inspects the provider hub configuration.

Use 'hubcheck status' to list providers and which have credentials.
Use 'hubcheck chat "prompt"' to run a test completion through the
fallback chain.`,
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show provider availability, models, and cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}

	chatCmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Run a test chat completion through the fallback chain",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(strings.Join(args, " "))
		},
	}
	chatCmd.Flags().StringVar(&flagProvider, "provider", "", "preferred provider to try first")
	chatCmd.Flags().StringVar(&flagSystem, "system", "", "system prompt")
	chatCmd.Flags().StringVar(&flagModel, "model", "", "model override")
	chatCmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 0, "max response tokens")
	chatCmd.Flags().Float64Var(&flagTemperature, "temperature", 0, "sampling temperature")

	rootCmd.AddCommand(statusCmd, chatCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func runStatus() error {
	catalog, err := providers.DefaultCatalog(os.LookupEnv)
	if err != nil {
		return err
	}

	fmt.Println(color.CyanString("Provider Hub Status"))
	for _, row := range catalog.StatusReport() {
		marker := color.RedString("✗")
		if row.Available {
			marker = color.GreenString("✓")
		}
		fmt.Printf("%s %-12s %-22s $%.2f/MTok  %s\n",
			marker, row.ID, color.HiBlackString(row.DefaultModel), row.CostPerMTok, row.DisplayName)
	}

	available := catalog.DetectAvailable()
	if len(available) == 0 {
		fmt.Println(color.YellowString("no API keys configured"))
	} else {
		fmt.Printf("fallback order: %s\n", strings.Join(available, " → "))
	}
	return nil
}

func runChat(prompt string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	catalog, err := providers.DefaultCatalog(os.LookupEnv)
	if err != nil {
		return err
	}

	httpClient := &http.Client{}
	dispatcher := dispatch.NewService(catalog, map[providers.Format]providers.Adapter{
		providers.FormatOpenAI:    openaicompat.New(httpClient),
		providers.FormatAnthropic: anthropic.New(httpClient),
	}, cfg.Dispatch.ProviderTimeout, zap.NewNop())

	result, err := dispatcher.Chat(context.Background(), &providers.ChatRequest{
		Prompt:      prompt,
		System:      flagSystem,
		Model:       flagModel,
		Provider:    flagProvider,
		Temperature: flagTemperature,
		MaxTokens:   flagMaxTokens,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s %s (%s, %d tokens, %s)\n",
		color.GreenString("✓"), result.Provider,
		result.Model, result.Usage.TotalTokens, result.Latency.Round(time.Millisecond))
	fmt.Println(result.Content)
	return nil
}

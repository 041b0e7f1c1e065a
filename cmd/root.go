// Package cmd provides the command-line interface for the triage tool.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/triage/internal/config"
	"github.com/danielolaszy/triage/internal/jira"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/internal/openai"
	"github.com/danielolaszy/triage/internal/server"
	"github.com/danielolaszy/triage/pkg/models"
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage rewrites raw bug reports into structured issue reports",
	Long: `Triage takes a user-written bug report and asks a chat-completion model
to rewrite it into a professional issue title and a structured description
(summary, reproduction steps, expected and actual results).

Without flags it starts a webhook server. Jira webhook payloads are routed
back into Jira as issue updates; direct payloads carrying only a description
are printed to the console. With --description it runs a single generation
and prints the result without starting the server.`,
	RunE: run,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringP("description", "d", "", "Bug description to process without starting the server")
	rootCmd.Flags().IntP("port", "p", 8000, "Port for the webhook server")

	// Add the GitHub command
	rootCmd.AddCommand(githubCmd)
}

// run dispatches between one-shot CLI mode and the webhook server.
func run(cmd *cobra.Command, args []string) error {
	description, err := cmd.Flags().GetString("description")
	if err != nil {
		return err
	}

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logging.SetupFileLogger(cfg.Server.LogFile, logLevelFromEnv()); err != nil {
		logging.Warn("file logging disabled", "error", err)
	}
	defer logging.Close()

	generator := openai.NewClient(cfg)

	if description != "" {
		logging.Info("running in cli mode")

		result, err := generator.GenerateReport(context.Background(), description)
		if err != nil {
			return err
		}

		printReport("CLI Mode", result)
		return nil
	}

	updater := jira.NewClient(cfg)
	r := server.Setup(server.NewWebhookHandler(generator, updater))

	logging.Info("starting webhook server", "port", port)
	return r.Run(fmt.Sprintf(":%d", port))
}

// printReport writes a generated report to standard output.
func printReport(mode string, result models.GenerationResult) {
	fmt.Printf("===== Generated Output (%s) =====\n", mode)
	fmt.Println("Title:", result.Title)
	fmt.Println("Description:\n", result.Description)
}

// logLevelFromEnv mirrors the logging package default so the file logger
// keeps the level selected through LOG_LEVEL.
func logLevelFromEnv() logging.LogLevel {
	level := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if level == "" {
		return logging.LevelInfo
	}
	return logging.LogLevel(level)
}

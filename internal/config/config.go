// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application.
type Config struct {
	Server ServerConfig
	OpenAI OpenAIConfig
	Jira   JiraConfig
	GitHub GitHubConfig
}

// ServerConfig holds HTTP server specific configuration.
type ServerConfig struct {
	LogFile string
}

// OpenAIConfig holds OpenAI specific configuration.
type OpenAIConfig struct {
	APIKey string
	APIURL string
	Model  string
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	Domain    string
	UserEmail string
	APIToken  string
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token  string
	Domain string
}

// LoadConfig initializes and loads configuration from environment variables.
// Missing credentials are not an error at load time; they surface through
// the Validate helpers when an outbound call is about to be made.
func LoadConfig() (*Config, error) {
	// Initialize Viper for environment variables
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map specific environment variables
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.api_url", "OPENAI_API_URL")
	v.BindEnv("openai.model", "OPENAI_MODEL")
	v.BindEnv("jira.domain", "JIRA_DOMAIN")
	v.BindEnv("jira.user_email", "JIRA_USER_EMAIL")
	v.BindEnv("jira.api_token", "JIRA_API_TOKEN")
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.domain", "GITHUB_DOMAIN")
	v.BindEnv("server.log_file", "LOG_FILE")

	// Defaults for non-credential settings
	v.SetDefault("openai.api_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("server.log_file", "app.log")

	// Create config structure
	config := &Config{
		Server: ServerConfig{
			LogFile: v.GetString("server.log_file"),
		},
		OpenAI: OpenAIConfig{
			APIKey: v.GetString("openai.api_key"),
			APIURL: strings.TrimSuffix(v.GetString("openai.api_url"), "/"),
			Model:  v.GetString("openai.model"),
		},
		Jira: JiraConfig{
			Domain:    strings.TrimSuffix(v.GetString("jira.domain"), "/"),
			UserEmail: v.GetString("jira.user_email"),
			APIToken:  v.GetString("jira.api_token"),
		},
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			Domain: v.GetString("github.domain"),
		},
	}

	return config, nil
}

// ValidateOpenAIConfig validates OpenAI-specific configuration.
func ValidateOpenAIConfig(config *Config) error {
	var missingVars []string

	if config.OpenAI.APIKey == "" {
		missingVars = append(missingVars, "OPENAI_API_KEY")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	// JIRA validation
	if config.Jira.Domain == "" {
		missingVars = append(missingVars, "JIRA_DOMAIN")
	}
	if config.Jira.UserEmail == "" {
		missingVars = append(missingVars, "JIRA_USER_EMAIL")
	}
	if config.Jira.APIToken == "" {
		missingVars = append(missingVars, "JIRA_API_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}

// ValidateGitHubConfig validates GitHub-specific configuration.
func ValidateGitHubConfig(config *Config) error {
	if config.GitHub.Token == "" {
		return fmt.Errorf("missing required environment variables: [GITHUB_TOKEN]")
	}

	return nil
}

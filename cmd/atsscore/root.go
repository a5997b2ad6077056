package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ats-backend/internal/shared/config"
	"ats-backend/internal/shared/telemetry"
)

const app = "atsscore"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "Score how well a résumé fits a job description",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			return telemetry.Init(viper.GetBool("json"), viper.GetBool("debug"))
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is atsscore.yaml in the current directory, if present)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("provider", "", "llm provider: openai, gemini or none")
	rootCmd.PersistentFlags().String("model", "", "llm model name")
	rootCmd.PersistentFlags().Duration("timeout", 0, "llm request timeout")

	for _, name := range []string{"debug", "json", "provider", "model", "timeout"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	_ = viper.BindEnv("openai-api-key", "OPENAI_API_KEY")
	_ = viper.BindEnv("gemini-api-key", "GEMINI_API_KEY")

	viper.SetEnvPrefix("ATS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless named explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// loadConfig starts from the environment configuration and applies flag,
// ATS_* environment and config file overrides.
func loadConfig() config.Config {
	cfg := config.Load()
	if v := strings.ToLower(strings.TrimSpace(viper.GetString("provider"))); v != "" {
		cfg.LLMProvider = v
	}
	if v := strings.TrimSpace(viper.GetString("model")); v != "" {
		cfg.LLMModel = v
	}
	if d := viper.GetDuration("timeout"); d > 0 {
		cfg.LLMTimeout = d
	}
	if v := viper.GetString("openai-api-key"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := viper.GetString("gemini-api-key"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	return cfg
}

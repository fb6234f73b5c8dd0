package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig     *AppConfig
	BrowserConfig *BrowserConfig
	PlannerConfig *PlannerConfig
}

type AppConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type BrowserConfig struct {
	Headless       bool `envconfig:"BROWSER_HEADLESS" default:"true"`
	SlowMo         int  `envconfig:"BROWSER_SLOW_MO" default:"0"`
	Timeout        int  `envconfig:"BROWSER_TIMEOUT" default:"30000"`
	ViewportWidth  int  `envconfig:"BROWSER_VIEWPORT_WIDTH" default:"1366"`
	ViewportHeight int  `envconfig:"BROWSER_VIEWPORT_HEIGHT" default:"768"`
}

type PlannerConfig struct {
	APIKey      string  `envconfig:"PLANNER_API_KEY" default:""`
	BaseURL     string  `envconfig:"PLANNER_BASE_URL" default:"https://api.openai.com/v1"`
	Model       string  `envconfig:"PLANNER_MODEL" default:"gpt-4"`
	Temperature float64 `envconfig:"PLANNER_TEMPERATURE" default:"0.1"`
	MaxTokens   int     `envconfig:"PLANNER_MAX_TOKENS" default:"1000"`
	MaxElements int     `envconfig:"PLANNER_MAX_ELEMENTS" default:"10"`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	return &conf, nil
}

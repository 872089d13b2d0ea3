package sendwastealerts

import (
	"fmt"
	"time"

	"meal-waste-workers/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	EmailEnabled  bool
	SMSEnabled    bool
	FromEmail     string
	SMSSenderID   string
	DefaultFine   float64
	FinePercent   float64
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 1,
		Timeout:       60 * time.Second,
		EmailEnabled:  true,
		DefaultFine:   3000,
		FinePercent:   25,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.EmailEnabled && c.FromEmail == "" {
		return fmt.Errorf("from_email is required when email is enabled")
	}
	if c.FinePercent < 0 || c.DefaultFine < 0 {
		return fmt.Errorf("fines must not be negative")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}

	if workerCfg, exists := appConfig.Workers[TaskType]; exists {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
		}
	}

	aws := appConfig.Integrations.AWS
	cfg.EmailEnabled = aws.SES.Enabled
	cfg.FromEmail = aws.SES.FromEmail
	cfg.SMSEnabled = aws.SNS.Enabled && appConfig.Alerts.SMSEnabled
	cfg.SMSSenderID = aws.SNS.DefaultSMSSenderID

	if appConfig.Alerts.DefaultFine > 0 {
		cfg.DefaultFine = appConfig.Alerts.DefaultFine
	}
	if appConfig.Alerts.FinePercent > 0 {
		cfg.FinePercent = appConfig.Alerts.FinePercent
	}
	return cfg
}

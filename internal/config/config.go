package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	LogLevel string `json:"log_level"`

	// Buckets. Source holds raw mail under incoming/, archive/ and
	// processing_errors/; Destination is the serving store the knowledge
	// base indexes.
	SourceBucket      string `json:"source_bucket"`
	DestinationBucket string `json:"destination_bucket"`

	KnowledgeBaseID string `json:"knowledge_base_id"`
	DataSourceID    string `json:"data_source_id"`

	MaxRetries int `json:"max_retries"`

	Lifecycle struct {
		Enabled        bool `json:"enabled"`
		ExpirationDays int  `json:"expiration_days"`
	} `json:"lifecycle"`

	S3 struct {
		Endpoint  string `json:"endpoint"`
		AccessKey string `json:"access_key"`
		SecretKey string `json:"secret_key"`
		Region    string `json:"region"`
		UseSSL    bool   `json:"use_ssl"`
	} `json:"s3"`

	Redis struct {
		Addr string `json:"addr"`
	} `json:"redis"`

	HTTP struct {
		Listen string `json:"listen"`
		// PushURL is where a standalone worker reaches the serve node to
		// stream frames to a connection it does not hold. Empty means
		// in-process delivery.
		PushURL string `json:"push_url"`
	} `json:"http"`

	Extractor struct {
		// Mode selects the text extractor: "remote" submits jobs to the
		// extraction service at BaseURL, "local" parses PDFs in-process.
		Mode         string   `json:"mode"`
		BaseURL      string   `json:"base_url"`
		PollInterval Duration `json:"poll_interval"`
		PollTimeout  Duration `json:"poll_timeout"`
	} `json:"extractor"`

	Retrieval struct {
		BaseURL string `json:"base_url"`
	} `json:"retrieval"`

	LLM struct {
		BaseURL     string   `json:"base_url"`
		APIKey      string   `json:"api_key"`
		Model       string   `json:"model"`
		MaxTokens   int      `json:"max_tokens"`
		Temperature float32  `json:"temperature"`
		ReadTimeout Duration `json:"read_timeout"`
	} `json:"llm"`

	Summary struct {
		AnchorMarker string `json:"anchor_marker"`
		WordBudget   int    `json:"word_budget"`
	} `json:"summary"`

	Assistant struct {
		Name   string `json:"name"`
		School string `json:"school"`
	} `json:"school_assistant"`
}

// Duration marshals as a time.ParseDuration string ("30s", "5m") so the
// config file stays readable.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LogLevel = "info"
	cfg.SourceBucket = "school-mail"
	cfg.DestinationBucket = "school-docs"
	cfg.MaxRetries = 3
	cfg.Lifecycle.ExpirationDays = 7
	cfg.S3.Endpoint = "localhost:9000"
	cfg.S3.Region = "us-east-1"
	cfg.Redis.Addr = "localhost:6379"
	cfg.HTTP.Listen = ":8080"
	cfg.Extractor.Mode = "local"
	cfg.Extractor.PollInterval = Duration(5 * time.Second)
	cfg.Extractor.PollTimeout = Duration(5 * time.Minute)
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.MaxTokens = 2000
	cfg.LLM.Temperature = 0.7
	cfg.LLM.ReadTimeout = Duration(5 * time.Minute)
	cfg.Summary.AnchorMarker = "WEEKLY UPDATE"
	cfg.Summary.WordBudget = 1500
	cfg.Assistant.Name = "Luisa"
	cfg.Assistant.School = "the school"

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	overrideString(&cfg.SourceBucket, "SOURCE_BUCKET_NAME")
	overrideString(&cfg.DestinationBucket, "DESTINATION_BUCKET_NAME")
	overrideString(&cfg.KnowledgeBaseID, "KNOWLEDGE_BASE_ID")
	overrideString(&cfg.DataSourceID, "DATA_SOURCE_ID")
	overrideInt(&cfg.MaxRetries, "MAX_RETRIES")
	overrideBool(&cfg.Lifecycle.Enabled, "ENABLE_LIFECYCLE_RULE")
	overrideString(&cfg.S3.Endpoint, "S3_ENDPOINT")
	overrideString(&cfg.S3.AccessKey, "S3_ACCESS_KEY")
	overrideString(&cfg.S3.SecretKey, "S3_SECRET_KEY")
	overrideString(&cfg.Redis.Addr, "REDIS_ADDR")
	overrideString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	overrideString(&cfg.LLM.BaseURL, "OPENAI_BASE_URL")

	return cfg, nil
}

// Validate checks the fields that have no usable default.
func (c *Config) Validate() error {
	if c.SourceBucket == "" {
		return fmt.Errorf("source_bucket is required")
	}
	if c.DestinationBucket == "" {
		return fmt.Errorf("destination_bucket is required")
	}
	if c.KnowledgeBaseID == "" {
		return fmt.Errorf("knowledge_base_id is required")
	}
	if c.DataSourceID == "" {
		return fmt.Errorf("data_source_id is required")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1")
	}
	if c.Extractor.Mode == "remote" && c.Extractor.BaseURL == "" {
		return fmt.Errorf("extractor.base_url is required in remote mode")
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func overrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}

// Package config centralizes environment-driven configuration for the
// scanledger binaries. Values come from the process environment, optionally
// seeded from a .env file during local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration shared by the scanledger binaries.
type Config struct {
	// Core settings
	Port         string
	DatabasePath string

	// OwnerEmail identifies the account documents are filed under.
	OwnerEmail string

	// WorkerCount is the async queue concurrency.
	WorkerCount int

	// Object storage for uploaded document bytes
	GCSBucket string

	// OCR engine settings
	OCRLanguage      string
	OCRWhitelist     string
	OCRPageSegMode   int
	MaxUploadBytes   int64

	// LLM extraction settings
	GeminiModel string
	LLMTimeout  time.Duration

	// Analytics export (optional; disabled when project is empty)
	BigQueryProject string
	BigQueryDataset string

	// Notion sync (optional)
	NotionToken      string
	NotionDatabaseID string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; in production the variables come from the orchestrator.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DatabasePath:     getEnv("DATABASE_PATH", "scanledger.db"),
		OwnerEmail:       getEnv("OWNER_EMAIL", "owner@scanledger.local"),
		GCSBucket:        os.Getenv("GCS_BUCKET"),
		OCRLanguage:      getEnv("OCR_LANGUAGE", "eng"),
		OCRWhitelist:     os.Getenv("OCR_WHITELIST"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		BigQueryProject:  os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:  getEnv("BIGQUERY_DATASET", "scanledger"),
		NotionToken:      os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID: os.Getenv("NOTION_DATABASE_ID"),
	}

	psm, err := getEnvInt("OCR_PAGE_SEG_MODE", 6) // single uniform block
	if err != nil {
		return nil, err
	}
	cfg.OCRPageSegMode = psm

	maxUpload, err := getEnvInt("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	timeoutSec, err := getEnvInt("LLM_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	cfg.LLMTimeout = time.Duration(timeoutSec) * time.Second

	workers, err := getEnvInt("WORKER_COUNT", 5)
	if err != nil {
		return nil, err
	}
	cfg.WorkerCount = workers

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	return n, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/Skufu/GoDiagnose/internal/classifier"
	"github.com/Skufu/GoDiagnose/internal/resources"
)

type Config struct {
	Port        string
	DatabaseURL string
	EnableDB    bool

	ModelFile        string
	EncoderFile      string
	DataDictFile     string
	TrainingDataFile string
	HospitalDataPath string
	HospitalTable    string
	PolicyFile       string

	ORTLibraryPath  string
	ONNXInputName   string
	ONNXLabelOutput string
	ONNXProbOutput  string
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		EnableDB:         strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		ModelFile:        getEnv("MODEL_FILE", "final_ensemble_model.json"),
		EncoderFile:      getEnv("ENCODER_FILE", "label_encoder.json"),
		DataDictFile:     getEnv("DATA_DICT_FILE", "data_dict.json"),
		TrainingDataFile: getEnv("TRAINING_DATA_FILE", "training_data.csv"),
		HospitalDataPath: getEnv("HOSPITAL_DATA_PATH", "hospital_chandrapur.csv"),
		HospitalTable:    getEnv("HOSPITAL_TABLE", "hospitals"),
		PolicyFile:       os.Getenv("POLICY_FILE"),
		ORTLibraryPath:   os.Getenv("ORT_LIBRARY_PATH"),
		ONNXInputName:    os.Getenv("ONNX_INPUT_NAME"),
		ONNXLabelOutput:  os.Getenv("ONNX_LABEL_OUTPUT"),
		ONNXProbOutput:   os.Getenv("ONNX_PROB_OUTPUT"),
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}

	return cfg, nil
}

func (c *Config) resourcePaths() resources.Paths {
	return resources.Paths{
		Model:        c.ModelFile,
		Encoder:      c.EncoderFile,
		DataDict:     c.DataDictFile,
		TrainingData: c.TrainingDataFile,
	}
}

func (c *Config) classifierOptions() classifier.Options {
	return classifier.Options{
		ONNX: classifier.ONNXOptions{
			LibraryPath:       c.ORTLibraryPath,
			InputName:         c.ONNXInputName,
			LabelOutput:       c.ONNXLabelOutput,
			ProbabilityOutput: c.ONNXProbOutput,
		},
	}
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go-pan-validator/logging"
	"go-pan-validator/pdf"
	redis "go-pan-validator/redis"
	"go-pan-validator/validation"
)

type Config struct {
	ServerConfig ServerConfig `json:"server_config"`

	LogLevel string `json:"log_level,omitempty"`

	OcrServiceUrl  string `json:"ocr_service_url"`
	FaceServiceUrl string `json:"face_service_url"`

	FieldMatchThreshold int     `json:"field_match_threshold,omitempty"`
	FaceMatchThreshold  float64 `json:"face_match_threshold,omitempty"`
	WorkerPoolSize      int64   `json:"worker_pool_size,omitempty"`
	RequiredPages       int     `json:"required_pages,omitempty"`
	OcrRenderDpi        int     `json:"ocr_render_dpi,omitempty"`
	FaceRenderDpi       int     `json:"face_render_dpi,omitempty"`
	JpegQuality         int     `json:"jpeg_quality,omitempty"`
	MaxUploadBytes      int64   `json:"max_upload_bytes,omitempty"`
	RequireSession      bool    `json:"require_session,omitempty"`

	StorageType         string                    `json:"storage_type"`
	RedisConfig         redis.RedisConfig         `json:"redis_config,omitempty"`
	RedisSentinelConfig redis.RedisSentinelConfig `json:"redis_sentinel_config,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "Path for the config.json to use")
	flag.Parse()

	if *configPath == "" {
		slog.Error("please provide a config path using the --config flag")
		os.Exit(1)
	}

	config, err := readConfigFile(*configPath)
	if err != nil {
		slog.Error("failed to read config file", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logging.InitLogger(config.LogLevel)
	slog.Info("Using config", "path", *configPath)

	tokenStorage, err := createTokenStorage(&config)
	if err != nil {
		slog.Error("failed to instantiate token storage", "error", err)
		os.Exit(1)
	}

	renderer := pdf.NewRenderer(config.JpegQuality)
	ocrClient := NewRegulaDocReaderClient(config.OcrServiceUrl)
	faceClient := NewRegulaFaceClient(config.FaceServiceUrl)

	orchestrator := validation.NewOrchestrator(renderer, ocrClient, faceClient, validation.Config{
		Policy: validation.Policy{
			FieldMatchThreshold: config.FieldMatchThreshold,
			FaceMatchThreshold:  config.FaceMatchThreshold,
		},
		WorkerPoolSize: config.WorkerPoolSize,
		OCRRenderDPI:   config.OcrRenderDpi,
		FaceRenderDPI:  config.FaceRenderDpi,
	})

	serverState := ServerState{
		validator:      orchestrator,
		pageCounter:    renderer,
		tokenStorage:   tokenStorage,
		requireSession: config.RequireSession,
		requiredPages:  config.RequiredPages,
		maxUploadBytes: config.MaxUploadBytes,
	}

	server, err := NewServer(&serverState, config.ServerConfig)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	err = server.ListenAndServe()
	if err != nil {
		slog.Error("failed to listen and serve", "error", err)
		os.Exit(1)
	}
}

func readConfigFile(path string) (Config, error) {
	configBytes, err := os.ReadFile(path)

	if err != nil {
		return Config{}, err
	}

	var config Config
	err = json.Unmarshal(configBytes, &config)

	if err != nil {
		return Config{}, err
	}

	applyDefaults(&config)
	return config, nil
}

// applyDefaults fills in the tunables that most deployments never override.
func applyDefaults(config *Config) {
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.FieldMatchThreshold == 0 {
		config.FieldMatchThreshold = 80
	}
	if config.FaceMatchThreshold == 0 {
		config.FaceMatchThreshold = 0.7
	}
	if config.WorkerPoolSize == 0 {
		config.WorkerPoolSize = 4
	}
	if config.RequiredPages == 0 {
		config.RequiredPages = 3
	}
	if config.OcrRenderDpi == 0 {
		config.OcrRenderDpi = 150
	}
	if config.FaceRenderDpi == 0 {
		config.FaceRenderDpi = 100
	}
	if config.JpegQuality == 0 {
		config.JpegQuality = 75
	}
	if config.MaxUploadBytes == 0 {
		config.MaxUploadBytes = 10 << 20
	}
	if config.StorageType == "" {
		config.StorageType = "memory"
	}
}

func createTokenStorage(config *Config) (TokenStorage, error) {
	if config.StorageType == "redis" {
		slog.Info("Using redis token storage")
		client, err := redis.NewRedisClient(&config.RedisConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisTokenStorage(client, config.RedisConfig.Namespace), nil
	}
	if config.StorageType == "redis_sentinel" {
		slog.Info("Using redis sentinel token storage")
		client, err := redis.NewRedisSentinelClient(&config.RedisSentinelConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisTokenStorage(client, config.RedisSentinelConfig.Namespace), nil
	}
	if config.StorageType == "memory" {
		slog.Info("Using in memory storage")
		return NewInMemoryTokenStorage(), nil
	}
	return nil, fmt.Errorf("%v is not a valid storage type", config.StorageType)
}

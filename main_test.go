package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestReadConfigFile_AppliesDefaults(t *testing.T) {
	path := writeTestConfig(t, `{
		"server_config": {"host": "localhost", "port": 8080},
		"ocr_service_url": "http://ocr.local",
		"face_service_url": "http://faces.local"
	}`)

	config, err := readConfigFile(path)
	require.NoError(t, err)

	require.Equal(t, "info", config.LogLevel)
	require.Equal(t, 80, config.FieldMatchThreshold)
	require.Equal(t, 0.7, config.FaceMatchThreshold)
	require.Equal(t, int64(4), config.WorkerPoolSize)
	require.Equal(t, 3, config.RequiredPages)
	require.Equal(t, 150, config.OcrRenderDpi)
	require.Equal(t, 100, config.FaceRenderDpi)
	require.Equal(t, 75, config.JpegQuality)
	require.Equal(t, int64(10<<20), config.MaxUploadBytes)
	require.Equal(t, "memory", config.StorageType)
}

func TestReadConfigFile_KeepsExplicitValues(t *testing.T) {
	path := writeTestConfig(t, `{
		"server_config": {"host": "localhost", "port": 8080},
		"ocr_service_url": "http://ocr.local",
		"face_service_url": "http://faces.local",
		"field_match_threshold": 90,
		"face_match_threshold": 0.85,
		"worker_pool_size": 8,
		"storage_type": "redis"
	}`)

	config, err := readConfigFile(path)
	require.NoError(t, err)

	require.Equal(t, 90, config.FieldMatchThreshold)
	require.Equal(t, 0.85, config.FaceMatchThreshold)
	require.Equal(t, int64(8), config.WorkerPoolSize)
	require.Equal(t, "redis", config.StorageType)
}

func TestReadConfigFile_MissingFile(t *testing.T) {
	_, err := readConfigFile("does-not-exist.json")
	require.Error(t, err)
}

func TestCreateTokenStorage_Memory(t *testing.T) {
	storage, err := createTokenStorage(&Config{StorageType: "memory"})
	require.NoError(t, err)
	require.IsType(t, &InMemoryTokenStorage{}, storage)
}

func TestCreateTokenStorage_UnknownType(t *testing.T) {
	_, err := createTokenStorage(&Config{StorageType: "carrier-pigeon"})
	require.Error(t, err)
}

package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dropcrate/dropcrate/internal/flagx"
	"github.com/dropcrate/dropcrate/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "5m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr        string         `json:"endpoint_addr"`
	DatabaseDSN         string         `json:"database_dsn"`
	SecretKey           string         `json:"secret_key"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	UploadURLValidity   timex.Duration `json:"upload_url_validity"`
	DownloadURLValidity timex.Duration `json:"download_url_validity"`
	ShareURLValidity    timex.Duration `json:"share_url_validity"`
	StoreCallTimeout    timex.Duration `json:"store_call_timeout"`
	ShortenerEndpoint   string         `json:"shortener_endpoint"`
	ShortenerTimeout    timex.Duration `json:"shortener_timeout"`
	RedisAddr           string         `json:"redis_addr"`
	ShareCacheTTL       timex.Duration `json:"share_cache_ttl"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path is taken from the -c or -config command-line flags.
// If neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.S3AccessKey = c.S3AccessKey
	config.S3SecretKey = c.S3SecretKey
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.UploadURLValidity = time.Duration(c.UploadURLValidity.Duration)
	config.DownloadURLValidity = time.Duration(c.DownloadURLValidity.Duration)
	config.ShareURLValidity = time.Duration(c.ShareURLValidity.Duration)
	config.StoreCallTimeout = time.Duration(c.StoreCallTimeout.Duration)
	config.ShortenerEndpoint = c.ShortenerEndpoint
	config.ShortenerTimeout = time.Duration(c.ShortenerTimeout.Duration)
	config.RedisAddr = c.RedisAddr
	config.ShareCacheTTL = time.Duration(c.ShareCacheTTL.Duration)
}

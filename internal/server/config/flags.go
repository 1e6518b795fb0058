package config

import (
	"flag"
	"os"
	"time"

	"github.com/dropcrate/dropcrate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-t int      upload URL validity, minutes
//	-w int      download URL validity, minutes
//	-x int      share URL validity, hours
//	-y int      store call timeout, seconds
//	-n string   shortener endpoint
//	-o int      shortener timeout, seconds
//	-r string   redis address for the short-link cache (empty disables)
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and then converted to
//     time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-u", "-p", "-b", "-g", "-e", "-t", "-w", "-x", "-y", "-n", "-o", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	uploadURLValidity := fs.Int("t", int(config.UploadURLValidity.Minutes()), "upload_url_validity (in minutes)")
	downloadURLValidity := fs.Int("w", int(config.DownloadURLValidity.Minutes()), "download_url_validity (in minutes)")
	shareURLValidity := fs.Int("x", int(config.ShareURLValidity.Hours()), "share_url_validity (in hours)")
	storeCallTimeout := fs.Int("y", int(config.StoreCallTimeout.Seconds()), "store_call_timeout (in seconds)")

	fs.StringVar(&config.ShortenerEndpoint, "n", config.ShortenerEndpoint, "shortener endpoint")
	shortenerTimeout := fs.Int("o", int(config.ShortenerTimeout.Seconds()), "shortener_timeout (in seconds)")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address for share-link cache")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.UploadURLValidity = time.Duration(*uploadURLValidity) * time.Minute
	config.DownloadURLValidity = time.Duration(*downloadURLValidity) * time.Minute
	config.ShareURLValidity = time.Duration(*shareURLValidity) * time.Hour
	config.StoreCallTimeout = time.Duration(*storeCallTimeout) * time.Second
	config.ShortenerTimeout = time.Duration(*shortenerTimeout) * time.Second
}

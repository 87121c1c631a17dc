package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"
	"github.com/wkalt/tbin/binproto"
	"github.com/wkalt/tbin/storage"
	"github.com/wkalt/tbin/util/log"
)

var (
	logLevel        string
	maxDepth        int
	maxStringLength int

	// Directory storage provider options
	dataDir string

	// SQLite storage provider options
	sqlitePath string

	// S3 storage provider options
	s3Endpoint  string
	s3AccessKey string
	s3SecretKey string
	s3Bucket    string
	s3UseTLS    bool
	s3Region    string
)

var rootCmd = &cobra.Command{
	Use:   "tbin",
	Short: "Inspect, validate and produce binary protocol payloads",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := log.ParseLevel(logLevel)
		checkErr(err)
		log.SetDefault(os.Stderr, level)
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func bailf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func checkErr(err error) {
	if err != nil {
		bailf("error: %v", err)
	}
}

func readerOptions() []binproto.Option {
	return []binproto.Option{
		binproto.WithMaxDepth(maxDepth),
		binproto.WithMaxStringLength(maxStringLength),
	}
}

// openStore builds the storage provider selected by the storage flags. Exactly
// one provider must be selected.
func openStore() (storage.Provider, error) {
	s3requested := s3Endpoint != "" ||
		s3AccessKey != "" ||
		s3SecretKey != "" ||
		s3Bucket != ""
	selected := 0
	for _, requested := range []bool{dataDir != "", sqlitePath != "", s3requested} {
		if requested {
			selected++
		}
	}
	if selected > 1 {
		return nil, fmt.Errorf("only one of --data-dir, --sqlite or S3 options may be specified")
	}
	if selected == 0 {
		return nil, fmt.Errorf("must specify one of --data-dir, --sqlite or S3 options")
	}
	switch {
	case dataDir != "":
		store, err := storage.NewDirectoryStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("error creating directory store: %w", err)
		}
		return store, nil
	case sqlitePath != "":
		store, err := storage.OpenSQLiteStore(context.Background(), sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("error opening sqlite store: %w", err)
		}
		return store, nil
	}
	mc, err := minio.New(s3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s3AccessKey, s3SecretKey, ""),
		Secure: s3UseTLS,
		Region: s3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating S3 client: %w", err)
	}
	return storage.NewS3Store(mc, s3Bucket), nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", binproto.DefaultRecursionDepth, "Maximum nesting depth")
	rootCmd.PersistentFlags().IntVar(&maxStringLength, "max-string-length", 0, "Maximum string or binary length (0 for no limit)")

	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory (for directory storage)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite", "", "Database file (for sqlite storage)")
	rootCmd.PersistentFlags().StringVar(&s3Endpoint, "s3-endpoint", "", "S3 endpoint (for S3 storage)")
	rootCmd.PersistentFlags().StringVar(&s3AccessKey, "s3-access-key-id", "", "S3 access key ID (for S3 storage)")
	rootCmd.PersistentFlags().StringVar(&s3SecretKey, "s3-secret-key", "", "S3 secret key (for S3 storage)")
	rootCmd.PersistentFlags().StringVar(&s3Bucket, "s3-bucket", "", "S3 bucket (for S3 storage)")
	rootCmd.PersistentFlags().BoolVarP(&s3UseTLS, "s3-tls", "t", false, "Use TLS (for S3 storage)")
	rootCmd.PersistentFlags().StringVar(&s3Region, "s3-region", "", "S3 region")
}

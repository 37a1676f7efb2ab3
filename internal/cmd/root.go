// Package cmd implements the gtex-link command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gtex-link/gtex-link/pkg/client"
	"github.com/gtex-link/gtex-link/pkg/config"
	"github.com/gtex-link/gtex-link/pkg/logging"
	"github.com/gtex-link/gtex-link/pkg/service"
)

var (
	cfgFile string
	verbose bool

	// Version info set by the main package via ldflags.
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by the main package to set version information.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var rootCmd = &cobra.Command{
	Use:   "gtex-link",
	Short: "Resilient gateway to the GTEx Portal API",
	Long: `gtex-link is a resilient client-side gateway to the GTEx Portal REST API.

It throttles outbound requests with a token bucket, retries transport
failures with bounded exponential backoff, and memoizes responses in
per-operation TTL+LRU caches.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; GTEX_LINK_* env vars override)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// loadConfig loads the gateway configuration and configures logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.LoggingConfig()
	if verbose {
		logCfg.Level = logging.LevelDebug
	}
	logging.Setup(logCfg)

	return cfg, nil
}

// buildService constructs the client and service from configuration.
// The caller owns the returned client and must Close it.
func buildService(cfg *config.Config) (*client.Client, *service.Service, error) {
	c, err := client.New(cfg.ClientConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("create client: %w", err)
	}

	svc, err := service.New(c, cfg.ServiceCacheConfig())
	if err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("create service: %w", err)
	}

	return c, svc, nil
}

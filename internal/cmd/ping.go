package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to the GTEx Portal API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c, svc, err := buildService(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		start := time.Now()
		info, err := svc.ServiceInfo(cmd.Context())
		if err != nil {
			return fmt.Errorf("GTEx Portal unreachable: %w", err)
		}

		fmt.Printf("GTEx Portal reachable (%s)\n", time.Since(start).Round(time.Millisecond))
		if id, ok := info["id"].(string); ok {
			fmt.Printf("  service: %s\n", id)
		}
		if ver, ok := info["version"].(string); ok {
			fmt.Printf("  version: %s\n", ver)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

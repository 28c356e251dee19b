package cmd

import (
	"fmt"

	"github.com/Strum355/log"
	"github.com/spf13/cobra"

	"stevedore/internal/scaffold"
	"stevedore/pkg/config"
)

const defaultConfigFile = "stevedore.yaml"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config and render the demo web service's build context",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefault(defaultConfigFile); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		log.WithFields(log.Fields{
			"path": defaultConfigFile,
		}).Info("Wrote default config")

		srv := config.Service()
		if err := scaffold.Render(srv); err != nil {
			return fmt.Errorf("render build context: %w", err)
		}
		log.WithFields(log.Fields{
			"context": srv.ContextPath,
		}).Info("Rendered build context")

		fmt.Printf("wrote %s and build context %s, run `stevedore deploy` next\n", defaultConfigFile, srv.ContextPath)
		return nil
	},
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stevedore/pkg/config"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Stop and remove the deployed container",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator()
		if err != nil {
			return err
		}

		srv := config.Service()
		if err := orch.Teardown(cmd.Context(), srv); err != nil {
			return fmt.Errorf("teardown %s: %w", srv.Name(), err)
		}

		fmt.Printf("service %s torn down\n", srv.Name())
		return nil
	},
}

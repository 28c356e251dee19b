package cmd

import (
	"github.com/Strum355/log"
	"github.com/spf13/cobra"

	"stevedore/internal/webapp"
	"stevedore/pkg/config"
)

var webappCmd = &cobra.Command{
	Use:   "webapp",
	Short: "Serve the demo web app itself (what the bundled Dockerfile packages)",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := config.Service()

		log.WithFields(log.Fields{
			"port": srv.ContainerPort,
		}).Info("Listening & serving")

		return webapp.New(srv.Message).ListenAndServe(cmd.Context(), srv.ContainerPort)
	},
}

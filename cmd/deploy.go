package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stevedore/pkg/config"
)

var deployJSON bool

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Build the image, run the container and verify the service answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeploy(cmd)
	},
}

func runDeploy(cmd *cobra.Command) error {
	orch, err := newOrchestrator()
	if err != nil {
		return err
	}

	res := orch.Deploy(cmd.Context(), config.Service())

	if deployJSON {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else if res.Succeeded {
		fmt.Println(res.Message)
	} else {
		fmt.Fprintln(os.Stderr, "deployment failed:", res.Message)
		if res.Output != "" {
			fmt.Fprintln(os.Stderr, res.Output)
		}
	}

	if !res.Succeeded {
		// The result above is the report; the error only carries the code.
		return &exitError{code: res.ExitCode}
	}
	return nil
}

func init() {
	deployCmd.Flags().BoolVar(&deployJSON, "json", false, "print the deployment result as JSON")
}

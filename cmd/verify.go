package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stevedore/pkg/config"
	"stevedore/pkg/deploy"
)

var verifyJSON bool

// verifyReport is what the verify command prints: the probe target and how
// the probe went.
type verifyReport struct {
	Service   string `json:"service"`
	URL       string `json:"url"`
	Succeeded bool   `json:"succeeded"`
	Message   string `json:"message"`
	ExitCode  int    `json:"exit_code"`
	Output    string `json:"output,omitempty"`
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Probe the published port until the service answers the expected message",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator()
		if err != nil {
			return err
		}

		srv := config.Service()
		report := verifyReport{Service: srv.Name(), URL: srv.URL(), Succeeded: true}

		if err := orch.Verify(cmd.Context(), srv); err != nil {
			report.Succeeded = false
			report.Message = err.Error()
			report.ExitCode = deploy.ExitCodeFor(err)

			var verifyErr *deploy.VerifyError
			if errors.As(err, &verifyErr) {
				report.Output = verifyErr.Logs
			}
		} else {
			report.Message = fmt.Sprintf("service %s answering at %s: %s", srv.Name(), srv.URL(), srv.Message)
		}

		if verifyJSON {
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		} else if report.Succeeded {
			fmt.Println(report.Message)
		} else {
			fmt.Fprintln(os.Stderr, "verification failed:", report.Message)
			if report.Output != "" {
				fmt.Fprintln(os.Stderr, report.Output)
			}
		}

		if !report.Succeeded {
			return &exitError{code: report.ExitCode}
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the verification result as JSON")
}

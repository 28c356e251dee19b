package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stevedore/pkg/config"
	"stevedore/pkg/engine"
)

var statusJSON bool

// statusReport is the engine's live view of the deployment. Nothing is read
// from disk; if the engine is down the container state is simply unknown.
type statusReport struct {
	Service         string            `json:"service"`
	EngineReachable bool              `json:"engine_reachable"`
	Container       *engine.Container `json:"container,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report engine reachability and the deployed container's state",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return fmt.Errorf("connect to container engine: %w", err)
		}
		orch := orchestratorFor(eng)

		srv := config.Service()
		report := statusReport{Service: srv.Name()}

		if err := eng.Ping(cmd.Context()); err == nil {
			report.EngineReachable = true

			cnt, err := orch.Status(cmd.Context(), srv)
			if err == nil {
				report.Container = &cnt
			} else if !errors.Is(err, engine.ErrContainerNotFound) {
				return err
			}
		}

		if statusJSON {
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		printStatus(report)
		return nil
	},
}

func printStatus(report statusReport) {
	fmt.Printf("service:   %s\n", report.Service)

	if !report.EngineReachable {
		fmt.Println("engine:    unreachable")
		return
	}
	fmt.Println("engine:    reachable")

	if report.Container == nil {
		fmt.Println("container: not found")
		return
	}

	state := "stopped"
	if report.Container.Running {
		state = "running"
	}
	fmt.Printf("container: %s (%.12s) %s\n", report.Container.Name, report.Container.ID, state)
	if len(report.Container.Ports) > 0 {
		fmt.Printf("ports:     %s\n", strings.Join(report.Container.Ports, ", "))
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the status report as JSON")
}

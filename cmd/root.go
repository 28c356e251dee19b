package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Strum355/log"
	"github.com/spf13/cobra"

	"stevedore/internal/tools"
	"stevedore/pkg/config"
	"stevedore/pkg/deploy"
	"stevedore/pkg/engine"
	"stevedore/pkg/probe"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stevedore",
	Short: "Build, run and verify a single containerised web service",
	Long: "Stevedore drives a local Docker engine through one deployment: build the " +
		"image from a build context, run the container with a host port mapping, and " +
		"probe the published port until the service answers with the expected message.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.InitSimpleLogger(&log.Config{})

		if err := config.Load(cfgFile); err != nil {
			return err
		}
		config.PrintSettings()
		return nil
	},
}

// Execute runs the CLI and maps the outcome onto the process exit code:
// 0 success, 2 runtime unavailable, 3 build failed, 4 unreachable, 1 anything
// else.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, "Error:", msg)
		}

		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		return deploy.ExitError
	}
	return deploy.ExitOK
}

// exitError carries a specific exit code out of a command. An empty message
// means the command already reported the failure itself.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./stevedore.yaml)")

	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(teardownCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(webappCmd)
	rootCmd.AddCommand(versionCmd)
}

// newEngine connects to the engine configured under stevedore.engine.host,
// falling back to the environment.
func newEngine() (*engine.DockerEngine, error) {
	return engine.NewDockerEngine(config.EngineHost(), tools.ExecRunner{})
}

func newOrchestrator() (*deploy.Orchestrator, error) {
	eng, err := newEngine()
	if err != nil {
		return nil, fmt.Errorf("connect to container engine: %w", err)
	}
	return orchestratorFor(eng), nil
}

// orchestratorFor assembles the deploy flow around an already-connected
// engine.
func orchestratorFor(eng engine.Engine) *deploy.Orchestrator {
	return deploy.NewOrchestrator(eng, tools.ExecRunner{}, probe.New(), config.DeployOptions())
}

package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Strum355/log"
	"github.com/google/uuid"

	"stevedore/internal/tools"
	"stevedore/pkg/backoff"
	"stevedore/pkg/engine"
	"stevedore/pkg/probe"
	"stevedore/pkg/service"
	"stevedore/pkg/status"
)

// logTail is how many lines of container output a failed verification
// attaches to its error.
const logTail = 40

// Options tune how patient a deployment run is.
type Options struct {
	// StartCommand is attempted once when the engine does not answer the
	// first ping. Empty disables the attempt.
	StartCommand []string
	EngineWait   backoff.Config
	VerifyWait   backoff.Config
}

// Orchestrator drives a deployment run through its phases. It holds no state
// between runs; everything it needs lives in the engine and the spec.
type Orchestrator struct {
	engine engine.Engine
	runner tools.CommandRunner
	prober probe.Prober
	opts   Options
}

func NewOrchestrator(eng engine.Engine, runner tools.CommandRunner, prober probe.Prober, opts Options) *Orchestrator {
	if opts.EngineWait.MaxWait == 0 {
		opts.EngineWait = backoff.DefaultConfig()
	}
	if opts.VerifyWait.MaxWait == 0 {
		opts.VerifyWait = backoff.DefaultConfig()
	}
	return &Orchestrator{engine: eng, runner: runner, prober: prober, opts: opts}
}

// EnsureRuntime confirms the container engine answers, attempting the
// configured start command once and then polling until the wait budget runs
// out.
func (o *Orchestrator) EnsureRuntime(ctx context.Context) error {
	err := o.engine.Ping(ctx)
	if err == nil {
		log.Debug("Container engine answering")
		return nil
	}

	if len(o.opts.StartCommand) == 0 {
		return fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}

	log.WithFields(log.Fields{
		"command": strings.Join(o.opts.StartCommand, " "),
	}).Info("Container engine not answering, attempting to start it")

	_, stderr, code, err := o.runner.Run(ctx, o.opts.StartCommand[0], o.opts.StartCommand[1:]...)
	if err != nil {
		// The daemon may still be coming up through another path, so the
		// re-check below decides, not the start command.
		log.WithFields(log.Fields{
			"exit_code": code,
			"stderr":    strings.TrimSpace(string(stderr)),
		}).Debug("Start command did not succeed")
	}

	if err := backoff.Until(ctx, o.opts.EngineWait, o.engine.Ping); err != nil {
		return fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}
	log.Info("Container engine started")
	return nil
}

// BuildAndStart builds the image from the spec's context and replaces any
// previous container of the same name with a fresh one bound to the published
// port. The returned output is the build tool's, also when the build fails.
// An invalid spec is rejected before any engine work, as a plain error rather
// than a build failure.
func (o *Orchestrator) BuildAndStart(ctx context.Context, srv service.Spec, runID string) ([]byte, error) {
	if err := srv.Validate(); err != nil {
		return nil, err
	}

	output, err := o.engine.BuildImage(ctx, srv)
	if err != nil {
		return output, newBuildError(output, err)
	}
	log.WithFields(log.Fields{
		"image": srv.ImageTag(),
	}).Info("Image built")

	name := srv.ContainerName()
	if _, err := o.engine.FindContainer(ctx, name); err == nil {
		log.WithFields(log.Fields{
			"container": name,
		}).Info("Replacing existing container")
		if err := o.engine.RemoveContainer(ctx, name); err != nil {
			return output, newBuildError(output, err)
		}
	}

	id, err := o.engine.CreateContainer(ctx, srv, runID)
	if err != nil {
		return output, newBuildError(output, err)
	}
	if err := o.engine.StartContainer(ctx, id); err != nil {
		return output, newBuildError(output, err)
	}
	log.WithFields(log.Fields{
		"container": name,
		"id":        id,
		"port":      srv.PublishedPort,
	}).Info("Container started")

	return output, nil
}

// Verify probes the published port until the service answers 2xx with the
// expected content. On failure the error carries a tail of the container's
// logs.
func (o *Orchestrator) Verify(ctx context.Context, srv service.Spec) error {
	url := srv.URL()
	log.WithFields(log.Fields{
		"url": url,
	}).Info("Verifying service")

	err := o.prober.WaitReachable(ctx, url, srv.Message, o.opts.VerifyWait)
	if err == nil {
		log.WithFields(log.Fields{
			"url": url,
		}).Info("Service verified")
		return nil
	}

	logs, logErr := o.engine.ContainerLogs(ctx, srv.ContainerName(), logTail)
	if logErr != nil {
		log.WithError(logErr).Debug("Could not fetch container logs")
		logs = ""
	}
	return newVerifyError(logs, err)
}

// Deploy runs the full sequence: spec validation, runtime check, build and
// start, verify. The first failure stops the run; whatever was already
// created stays put for inspection.
func (o *Orchestrator) Deploy(ctx context.Context, srv service.Spec) Result {
	runID := uuid.NewString()
	res := Result{RunID: runID, Service: srv.Name(), Phase: status.PENDING}

	log.WithFields(log.Fields{
		"service": srv.Name(),
		"run_id":  runID,
	}).Info("Starting deployment")

	if err := srv.Validate(); err != nil {
		return o.failed(res, err)
	}

	if err := o.EnsureRuntime(ctx); err != nil {
		return o.failed(res, err)
	}
	res.Phase = status.RUNTIME_READY

	if _, err := o.BuildAndStart(ctx, srv, runID); err != nil {
		return o.failed(res, err)
	}
	res.Phase = status.BUILT

	if err := o.Verify(ctx, srv); err != nil {
		return o.failed(res, err)
	}

	res.Phase = status.VERIFIED
	res.Succeeded = true
	res.ExitCode = ExitOK
	res.URL = srv.URL()
	res.Message = fmt.Sprintf("service %s answering at %s: %s", srv.Name(), srv.URL(), srv.Message)

	log.WithFields(log.Fields{
		"service": srv.Name(),
		"url":     res.URL,
	}).Info("Deployment verified")

	return res
}

// Teardown stops and removes the service's container. A container that is
// already gone counts as success, so teardown can be run repeatedly.
func (o *Orchestrator) Teardown(ctx context.Context, srv service.Spec) error {
	name := srv.ContainerName()

	_, err := o.engine.FindContainer(ctx, name)
	if errors.Is(err, engine.ErrContainerNotFound) {
		log.WithFields(log.Fields{
			"container": name,
		}).Info("No container to remove")
		return nil
	}
	if err != nil {
		return err
	}

	if err := o.engine.StopContainer(ctx, name); err != nil && !errors.Is(err, engine.ErrContainerNotFound) {
		return err
	}
	if err := o.engine.RemoveContainer(ctx, name); err != nil && !errors.Is(err, engine.ErrContainerNotFound) {
		return err
	}

	log.WithFields(log.Fields{
		"container": name,
	}).Info("Container stopped and removed")
	return nil
}

// Status reports the engine's view of the service's container.
func (o *Orchestrator) Status(ctx context.Context, srv service.Spec) (engine.Container, error) {
	return o.engine.FindContainer(ctx, srv.ContainerName())
}

func (o *Orchestrator) failed(res Result, err error) Result {
	res.Phase = status.FAILED
	res.Succeeded = false
	res.Message = err.Error()
	res.ExitCode = ExitCodeFor(err)

	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		res.Output = buildErr.Output
	}
	var verifyErr *VerifyError
	if errors.As(err, &verifyErr) {
		res.Output = verifyErr.Logs
	}

	log.WithError(err).Error("Deployment failed")
	return res
}

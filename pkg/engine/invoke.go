package engine

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/lintang-b-s/brouter-client/pkg/util"
	"go.uber.org/zap"
)

var jvmArgs = []string{"-Xmx128M", "-Xms128M", "-Xmn8M", "-DmaxRunningTime=300"}

// Invoke runs the engine once with args appended to the data directory flags
// and returns its standard output. The bundle must have been acquired.
//
// The process (and its children) is killed when ctx or the configured timeout
// expires; that case is util.ErrLocalEngineTimeout. A non-zero exit is
// util.ErrLocalEngineExecutionFailed wrapping a *util.ExitError.
func (e *Engine) Invoke(ctx context.Context, args []string) ([]byte, error) {
	e.mu.RLock()
	ready := e.state == StateReady && e.bundle != nil
	var b Bundle
	if ready {
		b = *e.bundle
	}
	e.mu.RUnlock()
	if !ready {
		return nil, util.NewErrorf(util.ErrLocalEngineUnavailable, "engine bundle not acquired (state %s)", e.State())
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	cmd := e.command(ctx, b, args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err := e.runError(ctx, err, cmd.Path, stderr.Bytes(), elapsed); err != nil {
		return nil, err
	}

	e.log.Debug("engine invocation finished", zap.Duration("elapsed", elapsed), zap.Int("bytes", stdout.Len()))
	if stderr.Len() > 0 {
		e.log.Debug("engine stderr", zap.String("stderr", util.Excerpt(stderr.Bytes(), 512)))
	}
	return stdout.Bytes(), nil
}

// runError classifies the outcome of cmd.Run. A run that exited cleanly is a
// success even when the deadline expired right after it.
func (e *Engine) runError(ctx context.Context, err error, path string, stderr []byte, elapsed time.Duration) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		e.log.Warn("engine invocation timed out", zap.Duration("elapsed", elapsed))
		return util.WrapErrorf(ctx.Err(), util.ErrLocalEngineTimeout, "engine did not finish within its deadline")
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		e.log.Debug("engine exited with failure", zap.Int("exit_code", exitErr.ExitCode()),
			zap.String("stderr", util.Excerpt(stderr, 512)))
		return util.WrapErrorf(&util.ExitError{ExitCode: exitErr.ExitCode(), Stderr: string(stderr)},
			util.ErrLocalEngineExecutionFailed, "engine run failed")
	}
	if ctx.Err() != nil {
		return util.WrapErrorf(err, util.ErrLocalEngineExecutionFailed, "engine run cancelled")
	}
	return util.WrapErrorf(err, util.ErrLocalEngineUnavailable, "start engine %s", path)
}

func (e *Engine) command(ctx context.Context, b Bundle, args []string) *exec.Cmd {
	var name string
	var argv []string
	if strings.HasSuffix(strings.ToLower(b.EntryPoint), ".jar") {
		name = e.cfg.JavaPath
		argv = append(argv, jvmArgs...)
		argv = append(argv, "-cp", b.EntryPoint, e.cfg.MainClass)
	} else {
		name = b.EntryPoint
	}
	argv = append(argv,
		"-segments", e.cfg.SegmentsDir,
		"-profiles", b.ProfilesDir,
		"-customprofiles", e.customProfilesPath(),
	)
	argv = append(argv, args...)

	cmd := exec.CommandContext(ctx, name, argv...)
	cmd.Dir = b.Dir
	cmd.WaitDelay = defaultWaitDelay
	killProcessGroup(cmd)
	return cmd
}

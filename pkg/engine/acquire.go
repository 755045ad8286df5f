package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/lintang-b-s/brouter-client/pkg/util"
	"go.uber.org/zap"
)

// Acquire makes sure an extracted engine bundle is published under the cache
// root, extracting src when none is. It is idempotent: against a ready cache
// it returns the existing bundle without touching src.
//
// Concurrent callers on one Engine share a single attempt; Engines in other
// goroutines or processes serialize on an advisory lock file in the cache root.
// A bundle directory is only ever published complete (extract to a temporary
// directory, then rename), so a crash leaves either the previous bundle or none.
func (e *Engine) Acquire(ctx context.Context, src ArchiveSource) (Bundle, error) {
	e.mu.RLock()
	if e.state == StateReady && e.bundle != nil {
		b := *e.bundle
		e.mu.RUnlock()
		return b, nil
	}
	e.mu.RUnlock()

	// the shared attempt outlives any single caller; each caller still
	// stops waiting when its own ctx is done
	ch := e.group.DoChan("acquire", func() (interface{}, error) {
		actx := context.WithoutCancel(ctx)
		if e.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(actx, e.cfg.Timeout)
			defer cancel()
		}
		return e.acquire(actx, src)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Bundle{}, res.Err
		}
		b := res.Val.(Bundle)
		if res.Shared {
			b.Extracted = false
		}
		return b, nil
	case <-ctx.Done():
		return Bundle{}, ctxError(ctx, "waiting for engine bundle")
	}
}

func (e *Engine) acquire(ctx context.Context, src ArchiveSource) (Bundle, error) {
	if err := os.MkdirAll(e.root, 0o755); err != nil {
		e.setState(StateFailed, nil)
		return Bundle{}, util.WrapErrorf(err, util.ErrLocalEngineUnavailable, "create cache directory %s", e.root)
	}

	lock := flock.New(filepath.Join(e.root, lockFile))
	locked, err := lock.TryLockContext(ctx, e.cfg.LockRetryDelay)
	if err != nil || !locked {
		if ctx.Err() != nil {
			return Bundle{}, ctxError(ctx, "waiting for cache lock")
		}
		e.setState(StateFailed, nil)
		return Bundle{}, util.WrapErrorf(err, util.ErrLocalEngineUnavailable, "lock cache directory %s", e.root)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			e.log.Warn("failed to release cache lock", zap.Error(err))
		}
	}()

	b, ok, err := e.readyBundle()
	if err != nil {
		e.setState(StateFailed, nil)
		return Bundle{}, util.WrapErrorf(err, util.ErrLocalEngineUnavailable, "inspect engine bundle")
	}
	if ok {
		e.log.Debug("engine bundle already extracted", zap.String("dir", b.Dir))
		ready := b
		e.setState(StateReady, &ready)
		return b, nil
	}

	if src.Empty() {
		e.setState(StateFailed, nil)
		return Bundle{}, util.NewErrorf(util.ErrLocalEngineUnavailable,
			"no engine bundle in %s and no archive configured to extract one", e.root)
	}

	e.setState(StateExtracting, nil)
	e.log.Info("extracting engine bundle", zap.String("archive", src.String()))
	start := time.Now()

	b, err = e.extractAndPublish(ctx, src)
	if err != nil {
		e.setState(StateFailed, nil)
		if ctx.Err() != nil {
			return Bundle{}, ctxError(ctx, "extracting engine bundle")
		}
		return Bundle{}, util.WrapErrorf(err, util.ErrLocalEngineUnavailable, "extract engine bundle %s", src)
	}

	ready := b
	e.setState(StateReady, &ready)
	e.log.Info("engine bundle ready", zap.String("dir", b.Dir), zap.String("entry_point", b.EntryPoint),
		zap.Duration("elapsed", time.Since(start)))

	b.Extracted = true
	return b, nil
}

// readyBundle reports the published bundle, if its completion marker exists.
func (e *Engine) readyBundle() (Bundle, bool, error) {
	dir := e.bundlePath()
	marker, err := os.ReadFile(filepath.Join(dir, ReadyMarker))
	if errors.Is(err, fs.ErrNotExist) {
		return Bundle{}, false, nil
	}
	if err != nil {
		return Bundle{}, false, err
	}

	b, err := e.describe(dir)
	if err != nil {
		return Bundle{}, false, err
	}
	b.Digest = markerDigest(marker)
	return b, true, nil
}

func (e *Engine) extractAndPublish(ctx context.Context, src ArchiveSource) (Bundle, error) {
	e.removeStaleExtractions()

	tmp, err := os.MkdirTemp(e.root, extractPrefix)
	if err != nil {
		return Bundle{}, err
	}
	published := false
	defer func() {
		if !published {
			_ = os.RemoveAll(tmp)
		}
	}()

	digest, err := extractArchive(ctx, src, tmp)
	if err != nil {
		return Bundle{}, err
	}
	if _, err := e.describe(tmp); err != nil {
		return Bundle{}, fmt.Errorf("archive is not an engine bundle: %w", err)
	}

	marker := fmt.Sprintf("digest=%s\nsource=%s\nextracted=%s\n", digest, src, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(tmp, ReadyMarker), []byte(marker), 0o644); err != nil {
		return Bundle{}, err
	}

	// an unmarked bundle directory is a leftover we are allowed to replace
	dir := e.bundlePath()
	if err := os.RemoveAll(dir); err != nil {
		return Bundle{}, err
	}
	if err := os.Rename(tmp, dir); err != nil {
		return Bundle{}, err
	}
	published = true

	b, err := e.describe(dir)
	if err != nil {
		return Bundle{}, err
	}
	b.Digest = digest
	return b, nil
}

// removeStaleExtractions drops temporary directories of crashed attempts. Callers hold the lock.
func (e *Engine) removeStaleExtractions() {
	stale, _ := filepath.Glob(filepath.Join(e.root, extractPrefix+"*"))
	for _, dir := range stale {
		if err := os.RemoveAll(dir); err != nil {
			e.log.Warn("failed to remove stale extraction", zap.String("dir", dir), zap.Error(err))
		}
	}
}

func markerDigest(marker []byte) string {
	sc := bufio.NewScanner(strings.NewReader(string(marker)))
	for sc.Scan() {
		if v, ok := strings.CutPrefix(sc.Text(), "digest="); ok {
			return v
		}
	}
	return ""
}

func ctxError(ctx context.Context, what string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return util.WrapErrorf(ctx.Err(), util.ErrLocalEngineTimeout, "%s", what)
	}
	return util.WrapErrorf(ctx.Err(), util.ErrLocalEngineUnavailable, "%s", what)
}

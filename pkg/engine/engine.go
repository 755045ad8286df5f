package engine

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// CacheDirEnv overrides the platform cache location of the engine bundle.
	CacheDirEnv = "BROUTER_CACHE_DIR"

	defaultCacheSubdir = "brouter-client"

	BundleDir         = "bundle"
	ReadyMarker       = ".ready"
	lockFile          = ".lock"
	extractPrefix     = ".extract-"
	customProfilesDir = "custom_profiles"
	segmentsDir       = "segments4"

	defaultJavaPath       = "java"
	defaultMainClass      = "btools.server.BRouter"
	defaultLockRetryDelay = 50 * time.Millisecond
	defaultWaitDelay      = 2 * time.Second
)

type State uint8

const (
	StateUninitialized State = iota
	StateExtracting
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateExtracting:
		return "extracting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

type Config struct {
	// CacheDir is the cache root; empty means $BROUTER_CACHE_DIR or the
	// platform user cache directory.
	CacheDir string
	// Executable is the engine launcher, relative to the bundle directory.
	// Empty means: find the brouter jar and run it with JavaPath.
	Executable string
	JavaPath   string
	MainClass  string
	// SegmentsDir holds the *.rd5 routing data; defaults to <root>/segments4.
	SegmentsDir string
	SegmentsURL string
	// Timeout bounds one engine invocation when the caller's context has no earlier deadline.
	Timeout        time.Duration
	LockRetryDelay time.Duration
	HTTPClient     *http.Client
}

// Bundle is a published, ready engine bundle.
type Bundle struct {
	Dir         string
	EntryPoint  string
	ProfilesDir string
	Digest      string
	// Extracted is true only for the Acquire call that performed the extraction.
	Extracted bool
}

// Engine owns one on-disk engine cache. Several Engines, in this process or
// others, may share a cache root.
type Engine struct {
	cfg  Config
	root string
	log  *zap.Logger

	group singleflight.Group

	mu     sync.RWMutex
	state  State
	bundle *Bundle
}

func New(cfg Config, log *zap.Logger) (*Engine, error) {
	root, err := ResolveCacheRoot(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	if cfg.JavaPath == "" {
		cfg.JavaPath = defaultJavaPath
	}
	if cfg.MainClass == "" {
		cfg.MainClass = defaultMainClass
	}
	if cfg.SegmentsDir == "" {
		cfg.SegmentsDir = filepath.Join(root, segmentsDir)
	}
	if cfg.LockRetryDelay <= 0 {
		cfg.LockRetryDelay = defaultLockRetryDelay
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Engine{
		cfg:   cfg,
		root:  root,
		log:   log.With(zap.String("cache_root", root)),
		state: StateUninitialized,
	}, nil
}

// ResolveCacheRoot picks dir, then $BROUTER_CACHE_DIR, then <user cache dir>/brouter-client.
func ResolveCacheRoot(dir string) (string, error) {
	if dir == "" {
		dir = os.Getenv(CacheDirEnv)
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("engine: resolve cache directory: %w", err)
		}
		dir = filepath.Join(base, defaultCacheSubdir)
	}
	return filepath.Abs(dir)
}

func (e *Engine) Root() string {
	return e.root
}

func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) setState(s State, b *Bundle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
	if b != nil {
		e.bundle = b
	}
}

func (e *Engine) bundlePath() string {
	return filepath.Join(e.root, BundleDir)
}

func (e *Engine) customProfilesPath() string {
	return filepath.Join(e.root, customProfilesDir)
}

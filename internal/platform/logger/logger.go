// Package logger wraps zerolog with process-wide defaults, an optional rotating
// file sink, and context-scoped fields for scans and HTTP requests
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"marketwatch/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger
type Options struct {
	Level       string
	Format      string
	Service     string
	Writer      io.Writer
	WithCaller  bool
	SampleEvery int

	// File, when set, receives JSON lines in addition to Writer and rotates by size
	File        string
	FileMaxMB   int
	FileBackups int
}

// FromEnv builds Options from LOG_* using the logging-free raw reader
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:       strings.ToLower(rc.Get("LEVEL", "info")),
		Format:      strings.ToLower(rc.Get("FORMAT", "console")),
		Service:     rc.Get("SERVICE", "marketwatch"),
		WithCaller:  rc.GetBool("CALLER", false),
		SampleEvery: rc.GetInt("SAMPLE_EVERY", 0),
		File:        rc.Get("FILE", ""),
		FileMaxMB:   rc.GetInt("FILE_MAX_MB", 10),
		FileBackups: rc.GetInt("FILE_BACKUPS", 5),
	}
}

var (
	once     sync.Once
	root     atomic.Pointer[zerolog.Logger]
	inited   atomic.Bool
	filePath atomic.Value // string
)

// Logger is the project-wide logging type
type Logger = zerolog.Logger

// Get returns the process-wide root logger, initializing from env on first use
func Get() *Logger {
	if !inited.Load() {
		Init(FromEnv())
	}
	return root.Load()
}

// FilePath returns the active log file path, "" when logging to stdout only
func FilePath() string {
	if v, ok := filePath.Load().(string); ok {
		return v
	}
	return ""
}

// Init configures zerolog and builds the root logger; only the first call has effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var out io.Writer = os.Stdout
		if opt.Writer != nil {
			out = opt.Writer
		}
		if opt.Format == "console" {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}
		if opt.File != "" {
			rot := &lumberjack.Logger{
				Filename:   opt.File,
				MaxSize:    max(opt.FileMaxMB, 1),
				MaxBackups: opt.FileBackups,
			}
			out = zerolog.MultiLevelWriter(out, rot)
			filePath.Store(opt.File)
		}

		zc := zerolog.New(out).Level(parseLevel(opt.Level)).With().Timestamp()
		if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
			zc = zc.Str("go_version", bi.GoVersion)
		}
		if opt.Service != "" {
			zc = zc.Str("service", opt.Service)
		}

		log := zc.Logger()
		if opt.WithCaller {
			log = log.With().Caller().Logger()
		}
		if opt.SampleEvery > 1 {
			log = log.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
		}

		root.Store(&log)
		inited.Store(true)
	})
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

type ctxKey struct{ name string }

var (
	keyRequestID = ctxKey{"request_id"}
	keyQueryID   = ctxKey{"query_id"}
	keyScanID    = ctxKey{"scan_id"}
	keyRunID     = ctxKey{"run_id"}
)

// WithRequest tags ctx with an HTTP request id
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyRequestID, reqID)
}

// WithQuery tags ctx with the query being processed
func WithQuery(ctx context.Context, queryID int64) context.Context {
	return context.WithValue(ctx, keyQueryID, queryID)
}

// WithScan tags ctx with the scan row id and its correlation run id
func WithScan(ctx context.Context, scanID int64, runID string) context.Context {
	ctx = context.WithValue(ctx, keyScanID, scanID)
	if runID != "" {
		ctx = context.WithValue(ctx, keyRunID, runID)
	}
	return ctx
}

// C returns a child logger enriched with whatever ids ctx carries
func C(ctx context.Context) *Logger {
	b := Get().With()
	if s, ok := ctx.Value(keyRequestID).(string); ok {
		b = b.Str("request_id", s)
	}
	if id, ok := ctx.Value(keyQueryID).(int64); ok {
		b = b.Int64("query_id", id)
	}
	if id, ok := ctx.Value(keyScanID).(int64); ok {
		b = b.Int64("scan_id", id)
	}
	if s, ok := ctx.Value(keyRunID).(string); ok {
		b = b.Str("run_id", s)
	}
	ll := b.Logger()
	return &ll
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}

package observability

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

// UseLogger sets the logger that repository loggers write to.
func UseLogger(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

func currentLogger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// RepoLogger provides structured logging for repository mutations.
type RepoLogger struct {
	table string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

func (l *RepoLogger) log(ctx context.Context, op string, attrs []slog.Attr) {
	all := append([]slog.Attr{
		slog.String("table", l.table),
		slog.String("operation", op),
	}, attrs...)
	currentLogger().LogAttrs(ctx, slog.LevelDebug, "repository "+op, all...)
}

// LogCreate logs a repository create operation.
func (l *RepoLogger) LogCreate(ctx context.Context, attrs ...slog.Attr) {
	l.log(ctx, "create", attrs)
}

// LogUpdate logs a repository update operation.
func (l *RepoLogger) LogUpdate(ctx context.Context, attrs ...slog.Attr) {
	l.log(ctx, "update", attrs)
}

// LogDelete logs a repository delete operation.
func (l *RepoLogger) LogDelete(ctx context.Context, attrs ...slog.Attr) {
	l.log(ctx, "delete", attrs)
}

// LogError logs a failed repository operation at error level.
func (l *RepoLogger) LogError(ctx context.Context, op string, err error, attrs ...slog.Attr) {
	all := append([]slog.Attr{
		slog.String("table", l.table),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	}, attrs...)
	currentLogger().LogAttrs(ctx, slog.LevelError, "repository error", all...)
}

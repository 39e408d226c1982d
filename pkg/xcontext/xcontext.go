package xcontext

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/goldenreel/backend/config"
	"github.com/goldenreel/backend/pkg/logger"
	"gorm.io/gorm"
)

type (
	dbKey            struct{}
	dbTransactionKey struct{}
	configsKey       struct{}
	loggerKey        struct{}
	snowflakeKey     struct{}
	httpRequestKey   struct{}
	httpWriterKey    struct{}
	startTimeKey     struct{}
	errorKey         struct{}
)

// dbTransaction is carried by pointer so commit and rollback observe each
// other through copied contexts.
type dbTransaction struct {
	tx   *gorm.DB
	done bool
}

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DB returns the transaction carried by the context if one is open,
// otherwise the root database handle.
func DB(ctx context.Context) *gorm.DB {
	if t, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction); ok && !t.done {
		return t.tx
	}

	if db, ok := ctx.Value(dbKey{}).(*gorm.DB); ok {
		return db
	}

	return nil
}

// WithDBTransaction begins a transaction on the root database handle and
// carries it in the returned context. Pair it with WithRollbackDBTransaction
// in a defer; the rollback is a no-op once the transaction is committed.
func WithDBTransaction(ctx context.Context) context.Context {
	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	if !ok {
		return ctx
	}

	return context.WithValue(ctx, dbTransactionKey{}, &dbTransaction{tx: db.Begin()})
}

// HasDBTransaction reports whether the context carries an open transaction.
func HasDBTransaction(ctx context.Context) bool {
	t, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction)
	return ok && !t.done
}

// CommitDBTransaction commits the transaction carried by the context and
// reports the commit error. Callers which cannot tolerate a silently lost
// commit must use this instead of WithCommitDBTransaction.
func CommitDBTransaction(ctx context.Context) error {
	t, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction)
	if !ok || t.done {
		return nil
	}

	t.done = true
	return t.tx.Commit().Error
}

func WithCommitDBTransaction(ctx context.Context) context.Context {
	if err := CommitDBTransaction(ctx); err != nil {
		Logger(ctx).Errorf("Cannot commit db transaction: %v", err)
	}

	return ctx
}

func WithRollbackDBTransaction(ctx context.Context) context.Context {
	t, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction)
	if !ok || t.done {
		return ctx
	}

	t.done = true
	if err := t.tx.Rollback().Error; err != nil {
		Logger(ctx).Errorf("Cannot rollback db transaction: %v", err)
	}

	return ctx
}

func WithConfigs(ctx context.Context, configs config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, configs)
}

func Configs(ctx context.Context) config.Configs {
	if configs, ok := ctx.Value(configsKey{}).(config.Configs); ok {
		return configs
	}

	return config.Configs{}
}

func WithLogger(ctx context.Context, l logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func Logger(ctx context.Context) logger.Logger {
	if l, ok := ctx.Value(loggerKey{}).(logger.Logger); ok {
		return l
	}

	return logger.NewLogger(logger.INFO)
}

func WithSnowFlake(ctx context.Context, node *snowflake.Node) context.Context {
	return context.WithValue(ctx, snowflakeKey{}, node)
}

var (
	fallbackSnowFlakeOnce sync.Once
	fallbackSnowFlake     *snowflake.Node
)

func SnowFlake(ctx context.Context) *snowflake.Node {
	if node, ok := ctx.Value(snowflakeKey{}).(*snowflake.Node); ok {
		return node
	}

	// The fallback node must be shared: independent nodes hand out the
	// same ID within one millisecond.
	fallbackSnowFlakeOnce.Do(func() {
		node, err := snowflake.NewNode(0)
		if err != nil {
			panic(err)
		}

		fallbackSnowFlake = node
	})

	return fallbackSnowFlake
}

func WithHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return context.WithValue(ctx, httpRequestKey{}, req)
}

func HTTPRequest(ctx context.Context) *http.Request {
	if req, ok := ctx.Value(httpRequestKey{}).(*http.Request); ok {
		return req
	}

	return nil
}

func WithHTTPWriter(ctx context.Context, w http.ResponseWriter) context.Context {
	return context.WithValue(ctx, httpWriterKey{}, w)
}

func HTTPWriter(ctx context.Context) http.ResponseWriter {
	if w, ok := ctx.Value(httpWriterKey{}).(http.ResponseWriter); ok {
		return w
	}

	return nil
}

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func StartTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(startTimeKey{}).(time.Time); ok {
		return t
	}

	return time.Time{}
}

type errorHolder struct {
	err error
}

// WithErrorCapture prepares the context to record the handler error, so
// closers running after the response can observe it.
func WithErrorCapture(ctx context.Context) context.Context {
	return context.WithValue(ctx, errorKey{}, &errorHolder{})
}

func SetError(ctx context.Context, err error) {
	if h, ok := ctx.Value(errorKey{}).(*errorHolder); ok {
		h.err = err
	}
}

func Error(ctx context.Context) error {
	if h, ok := ctx.Value(errorKey{}).(*errorHolder); ok {
		return h.err
	}

	return nil
}

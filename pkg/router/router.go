package router

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/goldenreel/backend/config"
	"github.com/goldenreel/backend/pkg/errorx"
	"github.com/goldenreel/backend/pkg/logger"
	"github.com/goldenreel/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler and can derive a new request
// context. Returning an error stops the chain.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the response has been written.
type CloserFunc func(ctx context.Context)

type Router struct {
	inner gin.IRouter

	db        *gorm.DB
	configs   config.Configs
	logger    logger.Logger
	snowflake *snowflake.Node

	befores []MiddlewareFunc
	afters  []MiddlewareFunc
	closers []CloserFunc
}

func New(db *gorm.DB, configs config.Configs, logger logger.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)

	node, err := snowflake.NewNode(configs.SnowFlakeNodeID)
	if err != nil {
		panic(err)
	}

	return &Router{
		inner:     gin.New(),
		db:        db,
		configs:   configs,
		logger:    logger,
		snowflake: node,
	}
}

// Branch derives a router sharing the same path space but owning an
// independent middleware chain.
func (r *Router) Branch() *Router {
	branch := &Router{
		inner:     r.inner,
		db:        r.db,
		configs:   r.configs,
		logger:    r.logger,
		snowflake: r.snowflake,
	}

	branch.befores = append(branch.befores, r.befores...)
	branch.afters = append(branch.afters, r.afters...)
	branch.closers = append(branch.closers, r.closers...)

	return branch
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.befores = append(r.befores, middleware)
}

func (r *Router) After(middleware MiddlewareFunc) {
	r.afters = append(r.afters, middleware)
}

func (r *Router) AddCloser(closer CloserFunc) {
	r.closers = append(r.closers, closer)
}

func (r *Router) Static(relativePath, root string) {
	r.inner.Static(relativePath, root)
}

func (r *Router) Handler() http.Handler {
	return r.inner.(*gin.Engine)
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.GET(pattern, wrapHandler(r, http.MethodGet, handler, writeEnvelope[Response]))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.POST(pattern, wrapHandler(r, http.MethodPost, handler, writeEnvelope[Response]))
}

// RawPOST registers a handler whose response is written as-is, for
// callers that expect a bespoke wire shape instead of the envelope.
// fallback converts middleware and binding failures into that shape.
func RawPOST[Request, Response any](
	r *Router,
	pattern string,
	handler HandlerFunc[Request, Response],
	fallback func(error) *Response,
) {
	r.inner.POST(pattern, wrapHandler(r, http.MethodPost, handler, writeRaw(fallback)))
}

func wrapHandler[Request, Response any](
	r *Router,
	method string,
	handler HandlerFunc[Request, Response],
	write func(*gin.Context, *Response, error),
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := xcontext.WithDB(c.Request.Context(), r.db)
		ctx = xcontext.WithConfigs(ctx, r.configs)
		ctx = xcontext.WithLogger(ctx, r.logger)
		ctx = xcontext.WithSnowFlake(ctx, r.snowflake)
		ctx = xcontext.WithHTTPRequest(ctx, c.Request)
		ctx = xcontext.WithHTTPWriter(ctx, c.Writer)
		ctx = xcontext.WithStartTime(ctx, time.Now())
		ctx = xcontext.WithErrorCapture(ctx)

		defer func() {
			for _, closer := range r.closers {
				closer(ctx)
			}
		}()

		for _, middleware := range r.befores {
			// On failure keep the context we already have; the error
			// capture and the closers still need a usable one.
			nextCtx, err := middleware(ctx)
			if err != nil {
				xcontext.SetError(ctx, err)
				write(c, nil, err)
				return
			}

			ctx = nextCtx
		}

		var req Request
		var err error
		switch method {
		case http.MethodGet:
			err = c.ShouldBindQuery(&req)
		default:
			err = c.ShouldBindJSON(&req)
		}
		if err != nil {
			r.logger.Debugf("Cannot bind the request of %s: %v", pattern(c), err)
			bindErr := errorx.New(errorx.BadRequest, "Cannot bind the request")
			xcontext.SetError(ctx, bindErr)
			write(c, nil, bindErr)
			return
		}

		resp, err := handler(ctx, &req)
		if err != nil {
			xcontext.SetError(ctx, err)
			write(c, nil, err)
			return
		}

		for _, middleware := range r.afters {
			nextCtx, err := middleware(ctx)
			if err != nil {
				xcontext.SetError(ctx, err)
				write(c, nil, err)
				return
			}

			ctx = nextCtx
		}

		write(c, resp, nil)
	}
}

func pattern(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}

	return c.Request.URL.Path
}

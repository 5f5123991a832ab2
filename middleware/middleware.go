// Package middleware wraps the turn pipeline with cross-cutting concerns:
// request logging, input validation and per-user rate limiting. Middlewares
// run in chain order and may stop a turn before any model is called.
package middleware

import (
	"context"

	"github.com/sweetpotato0/reportflow/report"
)

// Context carries one turn through the chain.
type Context struct {
	// UserID and Input identify the incoming turn.
	UserID string
	Input  string

	// Response, Report and Status are filled by the final handler.
	Response string
	Report   report.ID
	Status   report.Status

	// Metadata passes data between middlewares.
	Metadata map[string]any

	context context.Context
}

// NewContext creates a turn context.
func NewContext(ctx context.Context, userID, input string) *Context {
	return &Context{
		UserID:   userID,
		Input:    input,
		Metadata: make(map[string]any),
		context:  ctx,
	}
}

// Context returns the underlying context.Context.
func (c *Context) Context() context.Context {
	return c.context
}

// Middleware intercepts turns before and after the final handler.
type Middleware interface {
	// Name identifies the middleware in logs.
	Name() string

	// Execute runs the middleware; returning an error stops the chain.
	Execute(ctx *Context, next Handler) error
}

// Handler passes control to the next middleware or the final handler.
type Handler func(*Context) error

// Chain is an ordered middleware sequence.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a chain.
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Add appends a middleware.
func (c *Chain) Add(m Middleware) *Chain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Execute runs the chain, ending in finalHandler.
func (c *Chain) Execute(ctx *Context, finalHandler Handler) error {
	return c.execute(ctx, 0, finalHandler)
}

func (c *Chain) execute(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		return finalHandler(ctx)
	}
	next := func(ctx *Context) error {
		return c.execute(ctx, index+1, finalHandler)
	}
	return c.middlewares[index].Execute(ctx, next)
}

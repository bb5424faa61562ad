// Package router mounts handler route sets on a gin engine: probes at the
// root and everything else under /api/<version>.
package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar is anything that can add its routes to a gin router
type RouteRegistrar interface {
	RegisterRoutes(r gin.IRouter)
}

// Router collects registrars and mounts them in Setup
type Router struct {
	engine  *gin.Engine
	version string
	root    []RouteRegistrar
	api     []RouteRegistrar
	noRoute []gin.HandlerFunc
}

// Option configures a Router
type Option func(*Router)

// WithAPIVersion sets the version segment of the API prefix. Default "v1".
func WithAPIVersion(version string) Option {
	return func(r *Router) { r.version = version }
}

// WithNoRoute sets the handlers answering unmatched paths
func WithNoRoute(handlers ...gin.HandlerFunc) Option {
	return func(r *Router) { r.noRoute = handlers }
}

// New creates a Router for engine
func New(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root adds registrars mounted without a prefix
func (r *Router) Root(registrars ...RouteRegistrar) *Router {
	r.root = append(r.root, registrars...)
	return r
}

// API adds registrars mounted under the versioned API prefix
func (r *Router) API(registrars ...RouteRegistrar) *Router {
	r.api = append(r.api, registrars...)
	return r
}

// APIPrefix is the path every API registrar is mounted under
func (r *Router) APIPrefix() string {
	return "/api/" + r.version
}

// Setup registers every route with the engine
func (r *Router) Setup() {
	for _, reg := range r.root {
		reg.RegisterRoutes(r.engine)
	}
	api := r.engine.Group(r.APIPrefix())
	for _, reg := range r.api {
		reg.RegisterRoutes(api)
	}
	if len(r.noRoute) > 0 {
		r.engine.NoRoute(r.noRoute...)
	}
}

// Route is one endpoint of a Group
type Route struct {
	Method   string
	Path     string
	Handlers []gin.HandlerFunc
}

// Group is a path prefix with its own middleware, routes and nested groups.
// Nested groups inherit the middleware of their parents.
type Group struct {
	Prefix     string
	Middleware []gin.HandlerFunc
	Routes     []Route
	Groups     []Group
}

// RegisterRoutes implements RouteRegistrar
func (g Group) RegisterRoutes(r gin.IRouter) {
	group := r.Group(g.Prefix, g.Middleware...)
	for _, route := range g.Routes {
		group.Handle(route.Method, route.Path, route.Handlers...)
	}
	for _, sub := range g.Groups {
		sub.RegisterRoutes(group)
	}
}

// Handle builds a Route
func Handle(method, path string, handlers ...gin.HandlerFunc) Route {
	return Route{Method: method, Path: path, Handlers: handlers}
}

// Package middleware provides HTTP middleware for the alltube service:
// request logging and Prometheus metrics collection.
//
// Middleware is applied as a chain around the router:
//
//	handler := middleware.Logger(logConfig)(middleware.Metrics(metricsConfig)(router))
package middleware

// Package middleware provides HTTP middleware for the stats/demo server:
// request logging and Prometheus request metrics.
package middleware

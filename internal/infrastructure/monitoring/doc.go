/*
Package monitoring provides metrics collection for appswitchd.

# Overview

This package implements Prometheus-based metrics for the application
lifecycle: notifications emitted per application, process starts and exits,
relayed log lines, framebuffer capture/restore outcomes and latency, and the
compressed bytes currently held in screen snapshots.

A nil *Metrics is accepted everywhere and records nothing, so components can
be constructed without metrics in tests.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	// Add middleware to the debug Gin router
	router.Use(monitoring.Middleware(metrics))

	// Time a screen operation
	timer := monitoring.NewTimer(metrics, "capture")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring

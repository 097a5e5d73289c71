/*
Package monitoring provides Prometheus-based metrics for the router.

Tracked concerns: HTTP requests, router tool calls, interception and
overlay activity, queue sync passes, and WebSocket connections.

Usage:

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "purchases", "record")
	// ... perform operation ...
	timer.Stop("success")

Expose via the standard Prometheus endpoint:

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring

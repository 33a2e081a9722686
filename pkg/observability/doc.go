/*
Package observability turns chain lifecycle hooks into Prometheus metrics.

	m, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	reg := chain.NewRegistry(chain.WithLifecycleHooks(m.Hooks()))

Serve the collectors with promhttp, as the HTTP adapter does on /metrics.
*/
package observability

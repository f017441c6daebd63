/*
Package observability turns assistant lifecycle hooks into Prometheus metrics
and structured debug logs.

Both are plain domain.LifecycleHooks values and can be combined with Merge:

	hooks := metrics.Hooks().Merge(observability.LogHooks(logger))
*/
package observability

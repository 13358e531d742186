// Package progress estimates the time left in a long-running, multi-step
// operation and reports it to subscribers.
//
// A driver calls Estimator.BeginStep once per phase and Estimator.Tick once
// per completed item, bracketing waits that should not count as work with
// Pause and Resume. Every Tick synchronously notifies subscribers, such as
// Reporter (throttled text or JSON lines), BarReporter (terminal progress
// bar) and MetricsExporter (Prometheus gauges).
package progress

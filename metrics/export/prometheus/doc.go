// Package prometheus bridges the engine's internal counters to a
// Prometheus registry. The engine itself depends only on atomic counters;
// hosts that scrape metrics register this collector, everyone else pays
// nothing.
package prometheus

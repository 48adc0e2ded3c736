// Package metrics computes funnel numbers for the dashboard.
//
// All figures derive from lead status counts; the package holds no state of
// its own and performs no writes.
package metrics

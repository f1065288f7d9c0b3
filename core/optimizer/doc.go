// Package optimizer selects execution windows for flexible compute
// workloads against an hourly grid forecast. Each workload is placed
// independently at the start hour minimizing a weighted cost/carbon score
// net of flexibility revenue, subject to its earliest start, SLA deadline
// and an optional carbon cap.
package optimizer

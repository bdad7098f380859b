// Package rate enforces fixed-window attempt budgets for login and
// password-reset requests using Redis counters.
package rate

// Package audit carries the engine's audit event model and the async
// dispatcher that forwards events to a host-supplied sink. The dispatcher
// owns one goroutine with an explicit lifecycle; there is no ambient
// global state.
package audit

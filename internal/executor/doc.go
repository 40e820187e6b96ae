// Package executor runs native work for synchronous host callers.
//
// A Runtime is one goroutine draining a FIFO task queue. Host calls that
// cannot suspend use Block or BlockOn to run work on the loop and wait for
// the result. Default returns the lazily built process-wide Runtime; its
// queue size comes from HOSTBRIDGE_RUNTIME_QUEUE.
package executor

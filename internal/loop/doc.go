// Package loop provides the single-goroutine host loop and the primitives that
// let other goroutines hand work back to it:
//
//   - loop.go: Loop type, FIFO task queue, Run/Post/Stop.
//   - dispatcher.go: Dispatcher, a thread-safe sender bound to one Loop.
//   - async.go: Async, a coalescing one-shot wakeup handle.
//   - workers.go: Workers pool and QueueWork (execute off-loop, complete on-loop).
//   - errors.go: ErrLoopClosed, ErrDispatcherClosed and helpers.
//
// Only the goroutine executing Run may touch loop-owned state. Everything else
// must go through Post, a Dispatcher or an Async handle.
package loop

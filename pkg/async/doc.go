// Package async provides generic helpers for running computations
// asynchronously and joining on their completion.
//
// Async starts the supplied function in its own goroutine and returns a
// Future for its eventual result; Await blocks until completion,
// AwaitWithTimeout bounds the wait, and WaitAll joins a batch. The bulk
// notification dispatcher uses these to fan a send out across recipients and
// join on every outcome.
package async

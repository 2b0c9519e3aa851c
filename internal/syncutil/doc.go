// Package syncutil provides synchronization utilities for balego.
//
// # TaskSet
//
// TaskSet runs fire-and-forget goroutines while keeping track of them, so
// they can be counted and awaited together at shutdown:
//
//	tasks := syncutil.NewTaskSet()
//	tasks.Go("handler", func() {
//	    // work
//	})
//	err := tasks.Wait(ctx)
package syncutil

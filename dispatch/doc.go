// Package dispatch moves updates from the receiver to user code.
//
// The pieces are:
//   - Queue: FIFO of updates plus a stop sentinel, with Join/TaskDone
//     acknowledgement so shutdown can wait for everything queued
//   - Registry: ordered handlers; matching ones run as tracked tasks
//   - Waiters: one-shot "wait until one of these checks matches" requests
//   - Dispatcher: the loop that drains the Queue and feeds each update to
//     the Waiters and the Registry concurrently
//
// A typical shutdown stops the producer, puts the sentinel, joins the queue
// and finally waits for handler tasks:
//
//	q.PutSentinel()
//	_ = q.Join(ctx)
//	_ = d.Wait(ctx)
package dispatch

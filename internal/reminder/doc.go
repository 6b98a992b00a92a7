// Package reminder finds tasks that are about to fall due and emails their
// owners once per task.
//
// A Scanner performs one pass: it asks the task store for a coarse, day
// level set of candidates, reconstructs each task's due instant in the
// configured time zone, keeps those inside the reminder Window and hands
// them to a Notifier. A successful send marks the task notified. A failed
// send is recorded against the task and retried by a later pass until the
// attempt limit is reached.
//
// A Scheduler drives the Scanner on a fixed interval. Runs never overlap:
// within one process the Scanner refuses concurrent runs, and a RunLock
// (see platform/redis) extends that guarantee across processes.
package reminder

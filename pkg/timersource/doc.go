// Package timersource is one of the two pure Signal producers named
// in §4.9: it wraps robfig/cron to fire cmd.* signals into a Server's
// mailbox on a schedule, adapted from the teacher's pkg/cron job
// scheduler. Unlike the teacher's Service, it owns no job persistence
// or delivery/session bookkeeping of its own — those concerns belong
// to the host wiring a Source's Produce callback to Server.ProcessSignal.
package timersource

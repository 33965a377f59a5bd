// Package reminder turns events, tasks and medications into notification
// registrations with deterministic ids.
//
// Every operation is best-effort: a registry failure is logged and
// swallowed so the mutation that triggered the scheduling still
// succeeds. Ids are derived from the item, never random, which makes
// re-scheduling an upsert instead of a duplicate.
package reminder

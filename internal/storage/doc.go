// Package storage provides the persistence layer used by the scheduler:
//
//   - An opaque key-value store (JSON values) for events, tasks and
//     medications.
//   - A durable FIFO operation queue holding mutations made while offline,
//     replayed by the sync service.
package storage

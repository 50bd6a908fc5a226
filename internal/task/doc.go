// Package task defines the Task entity and its audited mutation model.
//
// A Task owns its subtasks, notes and history. Every mutating method appends
// to the history log and touches the modified timestamp; idempotent set
// operations (tags, dependencies, sharing) record nothing when they change
// nothing. History values are typed (see Value) so they survive a JSON
// round trip without losing their shape.
//
// Tasks are not safe for concurrent use.
package task

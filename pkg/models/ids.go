package models

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// idNode lazily builds the process-wide snowflake node. Node 1 is fine for a
// single-process deployment; a multi-instance deployment would derive this
// from a pod ordinal/env var, which is out of scope here.
func idNode() *snowflake.Node {
	nodeOnce.Do(func() {
		n, err := snowflake.NewNode(1)
		if err != nil {
			panic(fmt.Sprintf("models: failed to init snowflake node: %v", err))
		}
		node = n
	})
	return node
}

// NewTaskID generates a new review task identifier.
func NewTaskID() string {
	return "task_" + uuid.NewString()
}

// NewDiffID generates a sortable diff identifier. Sortability lets clients
// order diffs by emission time without an extra timestamp field.
func NewDiffID() string {
	return "diff_" + idNode().Generate().Base58()
}

// NewRiskID generates a risk identifier.
func NewRiskID() string {
	return "risk_" + uuid.NewString()
}

// NewActionID generates an action identifier.
func NewActionID() string {
	return "action_" + uuid.NewString()
}

// NewJobID generates a sortable upload job identifier.
func NewJobID() string {
	return "job_" + idNode().Generate().Base58()
}

// NewEventID generates a sortable event identifier. The SSE stream's `id:`
// field does not use it: events.Bus numbers each task's events with its own
// counter.
func NewEventID() string {
	return idNode().Generate().Base58()
}

// NewGraphRunID generates an identifier for one execution attempt of the
// graph engine (distinct from task_id, which is stable across resumes).
func NewGraphRunID() string {
	return "run_" + uuid.NewString()
}

// NewDocumentID generates an identifier for one parsed document, assigned
// once its upload job succeeds.
func NewDocumentID() string {
	return "doc_" + uuid.NewString()
}

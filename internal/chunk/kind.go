// Package chunk stores the typed auxiliary artifacts of the namespace:
// job definitions, catalogs, workflows and friends. Most kinds are
// immutable create-once payloads; the chunk kind additionally supports a
// version-matched force write.
package chunk

import (
	"fmt"

	"github.com/mariusz-jachimowicz-83/onyx/internal/namespace"
)

// Kind enumerates the chunk families of the namespace.
type Kind int

const (
	KindJobHash Kind = iota
	KindCatalog
	KindWorkflow
	KindFlow
	KindLifecycles
	KindWindows
	KindTriggers
	KindJobMetadata
	KindException
	KindTask
	KindChunk
	KindOrigin
	KindLogParameters
)

// writeMode selects how a kind's node is created.
type writeMode int

const (
	// writeCreate: single create, parents exist from bootstrap.
	writeCreate writeMode = iota
	// writeCreateAll: intermediate parents may not exist yet.
	writeCreateAll
	// writeManaged: written by a dedicated manager, readable here only.
	writeManaged
)

type kindSpec struct {
	name     string
	mode     writeMode
	needsSub bool
	path     func(p namespace.Paths, id, subID string) string
}

var kindSpecs = map[Kind]kindSpec{
	KindJobHash: {name: "job-hash", mode: writeCreate,
		path: func(p namespace.Paths, id, _ string) string { return p.JobHashRoot() + "/" + id }},
	KindCatalog: {name: "catalog", mode: writeCreate,
		path: func(p namespace.Paths, id, _ string) string { return p.CatalogRoot() + "/" + id }},
	KindWorkflow: {name: "workflow", mode: writeCreate,
		path: func(p namespace.Paths, id, _ string) string { return p.WorkflowRoot() + "/" + id }},
	KindFlow: {name: "flow-conditions", mode: writeCreate,
		path: func(p namespace.Paths, id, _ string) string { return p.FlowRoot() + "/" + id }},
	KindLifecycles: {name: "lifecycles", mode: writeCreate,
		path: func(p namespace.Paths, id, _ string) string { return p.LifecyclesRoot() + "/" + id }},
	KindWindows: {name: "windows", mode: writeCreate,
		path: func(p namespace.Paths, id, _ string) string { return p.WindowsRoot() + "/" + id }},
	KindTriggers: {name: "triggers", mode: writeCreate,
		path: func(p namespace.Paths, id, _ string) string { return p.TriggersRoot() + "/" + id }},
	KindJobMetadata: {name: "job-metadata", mode: writeCreate,
		path: func(p namespace.Paths, id, _ string) string { return p.JobMetadataRoot() + "/" + id }},
	KindException: {name: "exception", mode: writeCreate,
		path: func(p namespace.Paths, id, _ string) string { return p.ExceptionRoot() + "/" + id }},
	KindTask: {name: "task", mode: writeCreateAll, needsSub: true,
		path: func(p namespace.Paths, id, subID string) string { return p.Task(id, subID) }},
	KindChunk: {name: "chunk", mode: writeCreateAll,
		path: func(p namespace.Paths, id, _ string) string { return p.Chunk(id) }},
	KindOrigin: {name: "origin", mode: writeManaged,
		path: func(p namespace.Paths, _, _ string) string { return p.Origin() }},
	KindLogParameters: {name: "log-parameters", mode: writeManaged,
		path: func(p namespace.Paths, _, _ string) string { return p.LogParameters() }},
}

func (k Kind) spec() (kindSpec, error) {
	spec, ok := kindSpecs[k]
	if !ok {
		return kindSpec{}, fmt.Errorf("chunk: unknown kind %d", int(k))
	}
	return spec, nil
}

func (k Kind) String() string {
	if spec, ok := kindSpecs[k]; ok {
		return spec.name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

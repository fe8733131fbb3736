// Package namespace derives every node path the backend uses from a
// tenancy prefix and owns the bootstrap of the path skeleton.
package namespace

import "fmt"

// Root is the top-level prefix shared by all tenancies.
const Root = "/onyx"

// Paths derives node paths for one tenancy. All methods return absolute
// paths under /onyx/<tenancy-id>.
type Paths struct {
	prefix string
}

func New(tenancyID string) Paths {
	return Paths{prefix: Root + "/" + tenancyID}
}

func (p Paths) Prefix() string { return p.prefix }

// LogRoot is the parent of the append-only log entries.
func (p Paths) LogRoot() string { return p.prefix + "/log" }

// LogEntryPrefix is the path passed to sequential create; the service
// appends the 10-digit sequence number.
func (p Paths) LogEntryPrefix() string { return p.LogRoot() + "/entry-" }

// LogEntry is the node holding the entry at the given position.
func (p Paths) LogEntry(position int64) string {
	return p.LogEntryPrefix() + PadSequentialID(position)
}

func (p Paths) PulseRoot() string          { return p.prefix + "/pulse" }
func (p Paths) Pulse(peerID string) string { return p.PulseRoot() + "/" + peerID }

func (p Paths) OriginRoot() string { return p.prefix + "/origin" }
func (p Paths) Origin() string     { return p.OriginRoot() + "/origin" }

func (p Paths) LogParametersRoot() string { return p.prefix + "/log-parameters" }
func (p Paths) LogParameters() string     { return p.LogParametersRoot() + "/log-parameters" }

func (p Paths) JobHashRoot() string     { return p.prefix + "/job-hash" }
func (p Paths) CatalogRoot() string     { return p.prefix + "/catalog" }
func (p Paths) WorkflowRoot() string    { return p.prefix + "/workflow" }
func (p Paths) FlowRoot() string        { return p.prefix + "/flow" }
func (p Paths) LifecyclesRoot() string  { return p.prefix + "/lifecycles" }
func (p Paths) WindowsRoot() string     { return p.prefix + "/windows" }
func (p Paths) TriggersRoot() string    { return p.prefix + "/triggers" }
func (p Paths) JobMetadataRoot() string { return p.prefix + "/job-metadata" }
func (p Paths) ExceptionRoot() string   { return p.prefix + "/exception" }
func (p Paths) TaskRoot() string        { return p.prefix + "/task" }
func (p Paths) ChunkRoot() string       { return p.prefix + "/chunk" }

func (p Paths) Task(jobID, taskID string) string {
	return fmt.Sprintf("%s/%s/%s", p.TaskRoot(), jobID, taskID)
}

func (p Paths) Chunk(id string) string {
	return fmt.Sprintf("%s/%s/chunk", p.ChunkRoot(), id)
}

// SubtreeRoots lists every subtree the bootstrap must create, in creation
// order (parents first).
func (p Paths) SubtreeRoots() []string {
	return []string{
		Root,
		p.prefix,
		p.LogRoot(),
		p.PulseRoot(),
		p.OriginRoot(),
		p.LogParametersRoot(),
		p.JobHashRoot(),
		p.CatalogRoot(),
		p.WorkflowRoot(),
		p.FlowRoot(),
		p.LifecyclesRoot(),
		p.WindowsRoot(),
		p.TriggersRoot(),
		p.JobMetadataRoot(),
		p.ExceptionRoot(),
		p.TaskRoot(),
		p.ChunkRoot(),
	}
}

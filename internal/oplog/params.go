package oplog

// LogVersion is the log layout version this peer speaks. Subscribe
// refuses to tail a log whose parameters carry a different version.
const LogVersion = "1"

// Parameters is the cluster-wide document stored under
// log-parameters/log-parameters. It is written once at bootstrap and
// read by every subscriber before tailing.
type Parameters struct {
	LogVersion string `json:"log-version"`
}

// DefaultParameters is what a fresh tenancy is seeded with.
func DefaultParameters() Parameters {
	return Parameters{LogVersion: LogVersion}
}

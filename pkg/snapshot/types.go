// Package snapshot rebuilds the derived view of the current configuration
// generation. Each request gets its own Snapshot: the builder discovers the
// latest generation, loads its raw resources, derives the intermediate
// representation and the Envoy configuration, and computes diagnostics. The
// pipeline stages are collaborators injected as interfaces; this package
// ships working defaults and orchestrates them.
package snapshot

import (
	"context"
	"net/http"

	"edgeline/diagd/pkg/generation"
	"edgeline/diagd/pkg/resources"
)

// SecretReader resolves a named secret for the IR builder. The default
// reader comes from the split-config checker of the generation being built.
type SecretReader func(name, namespace string) ([]byte, error)

// Loader parses the raw configuration objects in a generation directory.
type Loader interface {
	LoadFromDirectory(ctx context.Context, dir string, k8s, recurse bool) (*resources.Set, error)
}

// IR is the intermediate representation derived from raw configuration.
// Its structure is owned by the builder collaborator; the diagnostic
// pipeline only needs feature data for telemetry.
type IR interface {
	// Features returns feature-usage data for scout reporting.
	Features() map[string]any
}

// IRBuilder derives the intermediate representation from loaded resources.
type IRBuilder interface {
	Build(ctx context.Context, set *resources.Set, secrets SecretReader) (IR, error)
}

// EnvoyConfig is the proxy configuration derived from the IR.
type EnvoyConfig interface {
	// Version returns the config version tag the configuration was
	// generated for (e.g. "V2").
	Version() string
}

// Generator lowers the IR into a versioned Envoy configuration.
type Generator interface {
	Generate(ctx context.Context, ir IR, version string) (EnvoyConfig, error)
}

// ErrorDetail is one diagnostics error entry within a source group.
type ErrorDetail struct {
	Error string `json:"error"`
}

// GlobalKey is the sentinel group key for errors not tied to any source.
const GlobalKey = "-global-"

// Diagnostics is the diagnostics object computed for one snapshot.
//
// AsDict returns the raw diagnostics mapping. Two keys have fixed types
// consumed by the view layer: "errors" is a map[string][]ErrorDetail
// grouped by source (GlobalKey for global errors) and "notices" is a
// map[string][]string grouped the same way.
type Diagnostics interface {
	AsDict() map[string]any

	// Overview returns the top-level summary for the overview page.
	Overview(r *http.Request) map[string]any

	// Lookup returns the per-source detail for one source, or false if
	// the source is unknown.
	Lookup(r *http.Request, source string) (map[string]any, bool)
}

// DiagBuilder computes diagnostics from the IR and the derived Envoy
// configuration.
type DiagBuilder interface {
	Build(ctx context.Context, ir IR, econf EnvoyConfig) (Diagnostics, error)
}

// Snapshot is the transient result of one rebuild. It is created fresh per
// request, owned by that request, and discarded with the response.
type Snapshot struct {
	// Generation is the generation the snapshot was built from.
	Generation generation.Generation

	// Resources is the parsed raw configuration.
	Resources *resources.Set

	// IR is the derived intermediate representation.
	IR IR

	// Envoy is the derived proxy configuration.
	Envoy EnvoyConfig

	// Diag is the diagnostics object for this snapshot.
	Diag Diagnostics
}

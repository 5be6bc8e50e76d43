package snapshot

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"edgeline/diagd/pkg/resources"
)

// The default collaborators give the daemon a complete pipeline out of the
// box. They derive just enough structure from the raw resources to make the
// diagnostic views useful; a full control plane replaces them through
// BuilderConfig.

type defaultLoader struct{}

func (defaultLoader) LoadFromDirectory(ctx context.Context, dir string, k8s, recurse bool) (*resources.Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return resources.LoadFromDirectory(dir, resources.LoadOptions{K8s: k8s, Recurse: recurse})
}

// basicIR groups raw resources by kind.
type basicIR struct {
	set    *resources.Set
	groups map[string][]resources.Resource
}

// Features returns per-kind resource counts for scout reporting.
func (ir *basicIR) Features() map[string]any {
	features := map[string]any{
		"resource_count": len(ir.set.Resources),
		"error_count":    len(ir.set.Errors),
	}
	for kind, group := range ir.groups {
		features["kind_"+kind] = len(group)
	}
	return features
}

type defaultIRBuilder struct{}

func (defaultIRBuilder) Build(ctx context.Context, set *resources.Set, secrets SecretReader) (IR, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &basicIR{set: set, groups: set.ByKind()}, nil
}

// basicEnvoyConfig is a skeletal derived proxy configuration: one cluster
// and one route per Mapping.
type basicEnvoyConfig struct {
	version  string
	clusters []map[string]any
	routes   []map[string]any
}

func (e *basicEnvoyConfig) Version() string { return e.version }

type defaultGenerator struct{}

func (defaultGenerator) Generate(ctx context.Context, ir IR, version string) (EnvoyConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	basic, ok := ir.(*basicIR)
	if !ok {
		return nil, fmt.Errorf("default generator requires the default IR builder")
	}

	econf := &basicEnvoyConfig{version: version}
	for _, m := range basic.groups["Mapping"] {
		service, _ := m.Spec["service"].(string)
		prefix, _ := m.Spec["prefix"].(string)

		econf.clusters = append(econf.clusters, map[string]any{
			"name":    "cluster_" + m.Name,
			"service": service,
			"_source": m.Source,
		})
		econf.routes = append(econf.routes, map[string]any{
			"prefix":  prefix,
			"cluster": "cluster_" + m.Name,
			"_source": m.Source,
		})
	}

	return econf, nil
}

// basicDiagnostics computes the diagnostics mapping from the default IR and
// Envoy config.
type basicDiagnostics struct {
	ir    *basicIR
	econf *basicEnvoyConfig
}

type defaultDiagBuilder struct{}

func (defaultDiagBuilder) Build(ctx context.Context, ir IR, econf EnvoyConfig) (Diagnostics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	basic, ok := ir.(*basicIR)
	if !ok {
		return nil, fmt.Errorf("default diagnostics require the default IR builder")
	}
	bec, ok := econf.(*basicEnvoyConfig)
	if !ok {
		return nil, fmt.Errorf("default diagnostics require the default generator")
	}

	return &basicDiagnostics{ir: basic, econf: bec}, nil
}

func (d *basicDiagnostics) AsDict() map[string]any {
	errGroups := map[string][]ErrorDetail{}
	for _, e := range d.ir.set.Errors {
		key := e.Source
		if key == "" {
			key = GlobalKey
		}
		errGroups[key] = append(errGroups[key], ErrorDetail{Error: e.Message})
	}

	return map[string]any{
		"envoy_version_tag": d.econf.Version(),
		"source_map":        d.sourceMap(),
		"errors":            errGroups,
		"notices":           map[string][]string{},
	}
}

func (d *basicDiagnostics) Overview(r *http.Request) map[string]any {
	return map[string]any{
		"cluster_count": len(d.econf.clusters),
		"route_count":   len(d.econf.routes),
		"source_count":  len(d.sourceMap()),
		"clusters":      d.econf.clusters,
		"routes":        d.econf.routes,
	}
}

func (d *basicDiagnostics) Lookup(r *http.Request, source string) (map[string]any, bool) {
	var objects []map[string]any
	for _, res := range d.ir.set.Resources {
		if res.Source != source {
			continue
		}
		objects = append(objects, map[string]any{
			"kind":      res.Kind,
			"name":      res.Name,
			"namespace": res.Namespace,
			"spec":      res.Spec,
		})
	}

	known := len(objects) > 0
	if !known {
		for _, e := range d.ir.set.Errors {
			if e.Source == source {
				known = true
				break
			}
		}
	}
	if !known {
		return nil, false
	}

	return map[string]any{
		"source":  source,
		"objects": objects,
	}, true
}

// sourceMap lists every source file seen, with its resource names sorted
// for stable output.
func (d *basicDiagnostics) sourceMap() map[string][]string {
	sources := map[string][]string{}
	for _, res := range d.ir.set.Resources {
		sources[res.Source] = append(sources[res.Source], res.Name)
	}
	for _, e := range d.ir.set.Errors {
		if _, ok := sources[e.Source]; !ok {
			sources[e.Source] = []string{}
		}
	}
	for _, names := range sources {
		sort.Strings(names)
	}
	return sources
}

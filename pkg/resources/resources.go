// Package resources loads the raw configuration objects found in a
// generation directory. It is the default implementation of the snapshot
// loader collaborator: real deployments can swap in a richer parser, but
// this one understands enough of the on-disk format to drive the
// diagnostic views.
package resources

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resource is one configuration object parsed from a generation directory.
type Resource struct {
	// APIVersion is the declared API version, if any.
	APIVersion string

	// Kind is the resource kind (e.g. "Mapping", "Module").
	Kind string

	// Name identifies the resource. In Kubernetes mode this comes from
	// metadata.name, otherwise from the top-level name field.
	Name string

	// Namespace is set only in Kubernetes mode.
	Namespace string

	// Source is the file the resource was parsed from, relative to the
	// generation directory.
	Source string

	// Spec holds the remaining fields of the object.
	Spec map[string]any
}

// Error records a per-file parse problem. Load never fails on a single bad
// file; it collects the problem here so diagnostics can surface it.
type Error struct {
	// Source is the offending file, relative to the generation directory.
	Source string

	// Message describes the problem.
	Message string
}

// Set is the parsed contents of one generation directory.
type Set struct {
	// Dir is the directory the set was loaded from.
	Dir string

	// Resources holds every successfully parsed object, in walk order.
	Resources []Resource

	// Errors holds per-file parse problems, in walk order.
	Errors []Error
}

// LoadOptions controls directory traversal and parse mode.
type LoadOptions struct {
	// K8s parses objects as Kubernetes manifests (name and namespace come
	// from metadata).
	K8s bool

	// Recurse descends into subdirectories.
	Recurse bool
}

// LoadFromDirectory parses every YAML file under dir. Unparseable files are
// recorded in the returned Set's Errors rather than aborting the load; only
// an unreadable directory is a hard failure.
func LoadFromDirectory(dir string, opts LoadOptions) (*Set, error) {
	set := &Set{Dir: dir}

	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !opts.Recurse {
				return fs.SkipDir
			}
			return nil
		}
		if !isYAML(d.Name()) {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		set.loadFile(path, rel, opts)
		return nil
	}

	if err := filepath.WalkDir(dir, walk); err != nil {
		return nil, fmt.Errorf("walking generation directory %q: %w", dir, err)
	}

	return set, nil
}

// loadFile parses one YAML file, which may contain multiple documents.
func (s *Set) loadFile(path, rel string, opts LoadOptions) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.Errors = append(s.Errors, Error{
			Source:  rel,
			Message: fmt.Sprintf("could not read: %v", err),
		})
		return
	}

	var docs []map[string]any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			s.Errors = append(s.Errors, Error{
				Source:  rel,
				Message: fmt.Sprintf("could not parse YAML: %v", err),
			})
			return
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}

	for _, doc := range docs {
		res, err := fromDocument(doc, rel, opts)
		if err != nil {
			s.Errors = append(s.Errors, Error{Source: rel, Message: err.Error()})
			continue
		}
		s.Resources = append(s.Resources, res)
	}
}

// fromDocument converts one decoded YAML document into a Resource.
func fromDocument(doc map[string]any, rel string, opts LoadOptions) (Resource, error) {
	res := Resource{Source: rel, Spec: map[string]any{}}

	if v, ok := doc["apiVersion"].(string); ok {
		res.APIVersion = v
	}
	if v, ok := doc["kind"].(string); ok {
		res.Kind = v
	}
	if res.Kind == "" {
		return Resource{}, fmt.Errorf("object has no kind")
	}

	if opts.K8s {
		meta, _ := doc["metadata"].(map[string]any)
		if meta != nil {
			if v, ok := meta["name"].(string); ok {
				res.Name = v
			}
			if v, ok := meta["namespace"].(string); ok {
				res.Namespace = v
			}
		}
	} else if v, ok := doc["name"].(string); ok {
		res.Name = v
	}

	if res.Name == "" {
		return Resource{}, fmt.Errorf("%s object has no name", res.Kind)
	}

	for k, v := range doc {
		switch k {
		case "apiVersion", "kind", "name", "metadata":
		default:
			res.Spec[k] = v
		}
	}

	return res, nil
}

// ByKind groups the set's resources by kind, preserving load order within
// each group.
func (s *Set) ByKind() map[string][]Resource {
	groups := make(map[string][]Resource)
	for _, r := range s.Resources {
		groups[r.Kind] = append(groups[r.Kind], r)
	}
	return groups
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"edgeline/diagd/pkg/generation"
)

// BuilderConfig configures a snapshot Builder.
type BuilderConfig struct {
	// ConfigDir is the root directory scanned for generations.
	ConfigDir string

	// ConfigVersion is the Envoy config version tag passed to the
	// generator.
	ConfigVersion string

	// K8s enables Kubernetes-style parsing in the loader.
	K8s bool

	// Loader, IRBuilder, Generator and DiagBuilder override the default
	// collaborators when non-nil.
	Loader      Loader
	IRBuilder   IRBuilder
	Generator   Generator
	DiagBuilder DiagBuilder

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Builder runs the rebuild pipeline. It is safe for concurrent use: each
// Build produces an independent Snapshot, and the only shared state is the
// split-config checker reference for the most recently built generation.
type Builder struct {
	configDir string
	version   string
	k8s       bool
	loader    Loader
	irb       IRBuilder
	gen       Generator
	diagb     DiagBuilder
	logger    *slog.Logger

	mu  sync.Mutex
	scc *SplitConfigChecker
}

// NewBuilder creates a Builder, filling in the default collaborators for
// any left nil in the config.
func NewBuilder(cfg BuilderConfig) *Builder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Builder{
		configDir: cfg.ConfigDir,
		version:   cfg.ConfigVersion,
		k8s:       cfg.K8s,
		loader:    cfg.Loader,
		irb:       cfg.IRBuilder,
		gen:       cfg.Generator,
		diagb:     cfg.DiagBuilder,
		logger:    logger,
	}

	if b.loader == nil {
		b.loader = defaultLoader{}
	}
	if b.irb == nil {
		b.irb = defaultIRBuilder{}
	}
	if b.gen == nil {
		b.gen = defaultGenerator{}
	}
	if b.diagb == nil {
		b.diagb = defaultDiagBuilder{}
	}

	return b
}

// Build discovers the latest generation and runs the full pipeline over it:
// load, IR, Envoy config, diagnostics. Every stage consumes only the
// previous stage's output; an error in any stage aborts the whole build.
// Nothing is cached across calls.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	gen, err := generation.Latest(b.configDir)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("fetching resources", "dir", gen.Dir, "generation", gen.ID)

	scc := NewSplitConfigChecker(b.logger, gen.Dir)
	b.setChecker(scc)

	set, err := b.loader.LoadFromDirectory(ctx, gen.Dir, b.k8s, true)
	if err != nil {
		return nil, fmt.Errorf("loading generation %d: %w", gen.ID, err)
	}

	ir, err := b.irb.Build(ctx, set, scc.ReadSecret)
	if err != nil {
		return nil, fmt.Errorf("building IR for generation %d: %w", gen.ID, err)
	}

	econf, err := b.gen.Generate(ctx, ir, b.version)
	if err != nil {
		return nil, fmt.Errorf("generating envoy config for generation %d: %w", gen.ID, err)
	}

	diag, err := b.diagb.Build(ctx, ir, econf)
	if err != nil {
		return nil, fmt.Errorf("computing diagnostics for generation %d: %w", gen.ID, err)
	}

	return &Snapshot{
		Generation: gen,
		Resources:  set,
		IR:         ir,
		Envoy:      econf,
		Diag:       diag,
	}, nil
}

// Checker returns the split-config checker of the most recently built
// generation, or nil before the first build.
func (b *Builder) Checker() *SplitConfigChecker {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scc
}

func (b *Builder) setChecker(scc *SplitConfigChecker) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scc = scc
}

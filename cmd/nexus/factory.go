package main

import (
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"nexus/internal/capability"
	"nexus/internal/config"
	"nexus/internal/llm"
	"nexus/internal/orchestrator"
	"nexus/internal/specialist"
	"nexus/internal/state"
)

// runtime bundles the orchestrator with the resources backing it.
type runtime struct {
	orch  *orchestrator.Orchestrator
	store *state.DB
	sigs  *orchestrator.SignalManager
	log   *orchestrator.DebugLogger
}

// Close releases the runtime's resources. Safe on partially built runtimes.
func (r *runtime) Close() {
	if r.sigs != nil {
		r.sigs.Close()
	}
	if r.store != nil {
		r.store.Close()
	}
	if r.log != nil {
		r.log.Close()
	}
}

// buildRuntime wires the orchestrator from loaded configuration.
func buildRuntime(cfg *config.Config) (*runtime, error) {
	client, err := llm.NewClient(llm.ClientConfig{
		Model:         anthropic.Model(cfg.Models.Specialist),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("create reasoning client: %w", err)
	}

	specialists := specialist.BuiltinSet()
	if overrides := config.FindSpecialistOverrides(); overrides != "" {
		if err := specialists.ApplyOverrides(overrides); err != nil {
			return nil, fmt.Errorf("apply specialist overrides: %w", err)
		}
	}

	rt := &runtime{}

	opts := []orchestrator.Option{
		orchestrator.WithMaxIterations(cfg.Limits.MaxIterations),
		orchestrator.WithRunTimeout(cfg.Timeouts.Run),
		orchestrator.WithTokenTracker(client.Tracker()),
	}

	if cfg.Models.Router != "" {
		opts = append(opts, orchestrator.WithRouterModel(anthropic.Model(cfg.Models.Router)))
	}
	if cfg.Models.Synthesizer != "" {
		opts = append(opts, orchestrator.WithSynthesizerModel(anthropic.Model(cfg.Models.Synthesizer)))
	}

	if !cfg.Storage.Disabled {
		path := cfg.Storage.Path
		if path == "" {
			path = state.DefaultDBPath()
		}
		store, err := state.Open(path)
		if err != nil {
			// Persistence is optional; the run still answers.
			fmt.Fprintf(os.Stderr, "warning: run history unavailable: %v\n", err)
		} else {
			rt.store = store
			opts = append(opts, orchestrator.WithStore(store))
		}
	}

	cwd, _ := os.Getwd()
	if sigs, err := orchestrator.NewSignalManager(cwd); err == nil {
		rt.sigs = sigs
		opts = append(opts, orchestrator.WithSignals(sigs))
	}

	if cfg.Logging.DebugFile != "" {
		logger, err := orchestrator.NewDebugLogger(cfg.Logging.DebugFile)
		if err != nil {
			return nil, fmt.Errorf("open debug log: %w", err)
		}
		rt.log = logger
		opts = append(opts, orchestrator.WithLogger(logger))
	}

	rt.orch = orchestrator.New(orchestrator.RequiredConfig{
		Reasoner:    client,
		Registry:    capability.NewRegistry(),
		Specialists: specialists,
	}, opts...)

	return rt, nil
}

// Package domain implements the conformance checks: flag registry
// extraction, guard span detection, cross referencing and the structural
// suite.
package domain

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pin-drift/guardcheck/internal/adapter"
	"github.com/pin-drift/guardcheck/internal/controller"
	m "github.com/pin-drift/guardcheck/internal/model"
)

// Suite identifies a named group of checks.
type Suite string

// The available suites, in their canonical execution order.
const (
	SuiteConditional Suite = "conditional"
	SuiteStructure   Suite = "structure"
)

// VerifyArgs carries the target selection for a verification run.
type VerifyArgs struct {
	// Target is the library directory to verify.
	Target m.Path

	// ProfilePath points at an explicit profile file. When empty, a
	// guardcheck.toml in the target directory is used if present, the
	// built-in defaults otherwise.
	ProfilePath m.Path

	// Report is an optional path; when set the run is persisted there.
	Report m.Path
}

// Workflow defines the verification operations exposed to the CLI.
type Workflow interface {
	// Verify runs the requested suites against the target and returns the
	// aggregated result. A missing or unreadable target is an error before
	// any check executes; individual check failures are not errors.
	Verify(args VerifyArgs, suites ...Suite) (*m.RunResult, error)

	// ListFlags extracts the flag registry from the target's configuration
	// source without running any checks.
	ListFlags(args VerifyArgs) (*m.FlagRegistry, error)
}

// checkRunner is the common surface of the per-suite checkers.
type checkRunner interface {
	PlannedChecks() int
	Run(sink func(m.CheckResult))
}

type workflow struct {
	fs     adapter.SourceFSAdapter
	loader adapter.SourceLoader
	store  adapter.ReportStore
	ui     controller.UI
	log    *zap.Logger
}

// NewWorkflow creates a Workflow instance with the provided adapters.
func NewWorkflow(fs adapter.SourceFSAdapter, loader adapter.SourceLoader, store adapter.ReportStore, ui controller.UI, log *zap.Logger) Workflow {
	return &workflow{fs: fs, loader: loader, store: store, ui: ui, log: log}
}

func (w *workflow) Verify(args VerifyArgs, suites ...Suite) (*m.RunResult, error) {
	target, profile, err := w.prepare(args)
	if err != nil {
		return nil, err
	}

	run := &m.RunResult{Target: target}

	if err := w.ui.Start(controller.WithTarget(string(target))); err != nil {
		return nil, fmt.Errorf("start ui: %w", err)
	}

	defer w.ui.Close()

	for _, suite := range suites {
		checker, err := w.checker(suite, profile, target)
		if err != nil {
			return nil, err
		}

		w.ui.SuiteStarted(string(suite), checker.PlannedChecks())
		w.log.Debug("suite started", zap.String("suite", string(suite)), zap.String("target", string(target)))

		checker.Run(func(result m.CheckResult) {
			run.Append(result)
			w.ui.CheckCompleted(result)
		})
	}

	if err := w.ui.RunCompleted(run); err != nil {
		return nil, err
	}

	w.ui.Wait()

	if args.Report != "" {
		if err := w.store.SaveRun(args.Report, run); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}

		w.log.Debug("report written", zap.String("path", string(args.Report)))
	}

	return run, nil
}

func (w *workflow) checker(suite Suite, profile Profile, target m.Path) (checkRunner, error) {
	switch suite {
	case SuiteConditional:
		return newConditionalChecker(w.fs, w.loader, profile, target, w.log), nil
	case SuiteStructure:
		return newStructureChecker(w.fs, w.loader, profile, target, w.log), nil
	default:
		return nil, fmt.Errorf("unknown suite %q", suite)
	}
}

func (w *workflow) ListFlags(args VerifyArgs) (*m.FlagRegistry, error) {
	target, profile, err := w.prepare(args)
	if err != nil {
		return nil, err
	}

	file, err := w.loader.Load(w.fs.JoinPath(string(target), profile.ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("configuration source: %w", err)
	}

	registry := ExtractRegistry(file, profile.TierMacro)

	return &registry, nil
}

// prepare normalizes the target directory and resolves the active profile.
func (w *workflow) prepare(args VerifyArgs) (m.Path, Profile, error) {
	target, err := w.fs.NormalizeRoot(args.Target)
	if err != nil {
		return "", Profile{}, fmt.Errorf("resolve target %q: %w", args.Target, err)
	}

	info, err := w.fs.FileInfo(target)
	if err != nil {
		return "", Profile{}, fmt.Errorf("target directory %q: %w", args.Target, err)
	}

	if !info.IsDir() {
		return "", Profile{}, fmt.Errorf("target %q is not a directory", args.Target)
	}

	profile, err := w.resolveProfile(target, args.ProfilePath)
	if err != nil {
		return "", Profile{}, err
	}

	return target, profile, nil
}

func (w *workflow) resolveProfile(target, override m.Path) (Profile, error) {
	path := override

	if path == "" {
		discovered := w.fs.JoinPath(string(target), ProfileFileName)
		if _, err := w.fs.FileInfo(discovered); err != nil {
			return DefaultProfile(), nil
		}

		path = discovered
	}

	data, err := w.fs.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %q: %w", path, err)
	}

	profile, err := ParseProfile(data)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", path, err)
	}

	w.log.Debug("profile loaded", zap.String("path", string(path)))

	return profile, nil
}

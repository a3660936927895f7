// Package engine orchestrates the estimation pipeline:
// load → evaluate → normalize → calculate.
// The engine owns sequencing and error mapping, never cost logic.
package engine

import (
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/zap"

	"aws-estimation/adapters/terraform"
	"aws-estimation/core/catalog"
	"aws-estimation/core/costing"
	"aws-estimation/core/evaluator"
	"aws-estimation/core/normalize"
	"aws-estimation/core/types"
	"aws-estimation/internal/config"
	"aws-estimation/internal/logging"
)

// Engine runs complete estimations against a published catalog store
type Engine struct {
	cfg   *config.Config
	store *catalog.Store
}

// Result is one complete estimation: the aggregate estimate plus the
// per-resource breakdown, in evaluation order.
type Result struct {
	// Estimate is the aggregate over all resources
	Estimate *types.Estimate

	// Resources are the per-resource cost results
	Resources []*types.CostResult

	// InstanceCount is the number of resource instances after
	// count/for_each/module expansion
	InstanceCount int
}

// New creates an engine over the catalog store
func New(cfg *config.Config, store *catalog.Store) *Engine {
	return &Engine{cfg: cfg, store: store}
}

// EstimateDir estimates the Terraform configuration in a directory
func (e *Engine) EstimateDir(dir string, variables map[string]cty.Value) (*Result, error) {
	loader := terraform.NewLoader()
	for name, value := range variables {
		loader.SetVariable(name, value)
	}
	cfg, err := loader.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return e.estimate(cfg)
}

// EstimateSource estimates an inline Terraform configuration
func (e *Engine) EstimateSource(src []byte, filename string, variables map[string]cty.Value) (*Result, error) {
	loader := terraform.NewLoader()
	for name, value := range variables {
		loader.SetVariable(name, value)
	}
	cfg, err := loader.LoadSource(src, filename)
	if err != nil {
		return nil, err
	}
	return e.estimate(cfg)
}

// estimate runs the pipeline on a loaded configuration. Evaluation is
// fail-fast: any expression error aborts the whole run. Costing never
// fails: unpriceable resources come back as zero-cost results with
// warnings.
func (e *Engine) estimate(cfg *evaluator.Config) (*Result, error) {
	instances, err := evaluator.New(e.cfg.Evaluation).Evaluate(cfg)
	if err != nil {
		return nil, err
	}

	normalizer := normalize.New(e.cfg.Pricing.DefaultRegion)
	resources := normalizer.NormalizeAll(instances)

	calculator := costing.NewCalculator(e.store)
	results, estimate := calculator.CalculateAll(resources)

	logging.Debug("estimation pipeline complete",
		zap.Int("instances", len(instances)),
		zap.String("estimate_id", estimate.ID))

	return &Result{
		Estimate:      estimate,
		Resources:     results,
		InstanceCount: len(instances),
	}, nil
}

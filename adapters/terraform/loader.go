// Package terraform loads Terraform HCL configuration into the
// evaluator's configuration tree.
//
// This is the configuration-loading collaborator: it parses syntax and
// hands the evaluator resource/module/variable blocks whose attribute
// bodies are kept as hcl.Expression ASTs. It performs no evaluation of
// its own beyond constant defaults (variable defaults, data source
// stubs, tfvars), which contain no references by definition.
package terraform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"aws-estimation/core/evaluator"
	"aws-estimation/internal/errors"
)

// Loader parses Terraform sources into evaluator configuration
type Loader struct {
	parser *hclparse.Parser

	// overrides are variable values applied over declared defaults
	overrides map[string]cty.Value
}

// NewLoader creates a loader
func NewLoader() *Loader {
	return &Loader{
		parser:    hclparse.NewParser(),
		overrides: make(map[string]cty.Value),
	}
}

// SetVariable overrides a root module input variable
func (l *Loader) SetVariable(name string, value cty.Value) {
	l.overrides[name] = value
}

// LoadDir parses every .tf file in a directory (plus terraform.tfvars
// when present) into one configuration tree. Local module sources are
// loaded recursively.
func (l *Loader) LoadDir(dir string) (*evaluator.Config, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Parsing(fmt.Sprintf("cannot read directory %s", dir), err)
	}

	var names []string
	for _, entry := range dirEntries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".tf") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, errors.Parsing(fmt.Sprintf("no .tf files in %s", dir), nil)
	}

	cfg := newConfig()
	for _, name := range names {
		path := filepath.Join(dir, name)
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Parsing(fmt.Sprintf("cannot read %s", path), err)
		}
		if err := l.parseInto(cfg, src, path, dir); err != nil {
			return nil, err
		}
	}

	if err := l.loadTfvars(cfg, dir); err != nil {
		return nil, err
	}
	l.applyOverrides(cfg)
	return cfg, nil
}

// LoadSource parses one in-memory HCL document. Module blocks with
// local sources cannot be resolved from inline source and fail at
// evaluation.
func (l *Loader) LoadSource(src []byte, filename string) (*evaluator.Config, error) {
	cfg := newConfig()
	if err := l.parseInto(cfg, src, filename, ""); err != nil {
		return nil, err
	}
	l.applyOverrides(cfg)
	return cfg, nil
}

func newConfig() *evaluator.Config {
	return &evaluator.Config{
		Variables:   make(map[string]cty.Value),
		Locals:      make(map[string]hcl.Expression),
		DataSources: make(map[string]map[string]cty.Value),
		Providers:   make(map[string]*evaluator.ProviderBlock),
	}
}

func (l *Loader) applyOverrides(cfg *evaluator.Config) {
	for name, value := range l.overrides {
		cfg.Variables[name] = value
	}
}

// parseInto parses one file and merges its blocks into the config
func (l *Loader) parseInto(cfg *evaluator.Config, src []byte, filename, baseDir string) error {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return errors.Parsing(fmt.Sprintf("parse failed for %s: %s", filename, diags.Error()), nil)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return errors.Parsing(fmt.Sprintf("unexpected body type in %s", filename), nil)
	}

	for _, block := range body.Blocks {
		switch block.Type {
		case "resource":
			if err := l.parseResource(cfg, block, filename); err != nil {
				return err
			}
		case "variable":
			if err := l.parseVariable(cfg, block, filename); err != nil {
				return err
			}
		case "locals":
			for name, attr := range block.Body.Attributes {
				cfg.Locals[name] = attr.Expr
			}
		case "provider":
			if err := l.parseProvider(cfg, block, filename); err != nil {
				return err
			}
		case "module":
			if err := l.parseModule(cfg, block, filename, baseDir); err != nil {
				return err
			}
		case "data":
			if err := l.parseData(cfg, block, filename); err != nil {
				return err
			}
		case "output", "terraform":
			// Not needed for cost evaluation
		}
	}
	return nil
}

func (l *Loader) parseResource(cfg *evaluator.Config, block *hclsyntax.Block, filename string) error {
	if len(block.Labels) != 2 {
		return errors.Parsing(fmt.Sprintf("resource block in %s needs type and name labels", filename), nil)
	}

	rb := &evaluator.ResourceBlock{
		Type: block.Labels[0],
		Name: block.Labels[1],
		Body: make(map[string]hcl.Expression),
	}
	for name, attr := range block.Body.Attributes {
		switch name {
		case "count":
			rb.Count = attr.Expr
		case "for_each":
			rb.ForEach = attr.Expr
		case "condition":
			rb.Condition = attr.Expr
		default:
			rb.Body[name] = attr.Expr
		}
	}
	cfg.Resources = append(cfg.Resources, rb)
	return nil
}

func (l *Loader) parseVariable(cfg *evaluator.Config, block *hclsyntax.Block, filename string) error {
	if len(block.Labels) != 1 {
		return errors.Parsing(fmt.Sprintf("variable block in %s needs a name label", filename), nil)
	}
	name := block.Labels[0]

	if attr, ok := block.Body.Attributes["default"]; ok {
		val, err := staticValue(attr.Expr, "variable "+name+" default")
		if err != nil {
			return err
		}
		cfg.Variables[name] = val
	}
	// A variable with no default and no override stays undeclared and
	// fails as an unresolved reference when used
	return nil
}

func (l *Loader) parseProvider(cfg *evaluator.Config, block *hclsyntax.Block, filename string) error {
	if len(block.Labels) != 1 {
		return errors.Parsing(fmt.Sprintf("provider block in %s needs a name label", filename), nil)
	}
	pb := &evaluator.ProviderBlock{Name: block.Labels[0]}
	if attr, ok := block.Body.Attributes["region"]; ok {
		pb.Region = attr.Expr
	}
	cfg.Providers[pb.Name] = pb
	return nil
}

func (l *Loader) parseModule(cfg *evaluator.Config, block *hclsyntax.Block, filename, baseDir string) error {
	if len(block.Labels) != 1 {
		return errors.Parsing(fmt.Sprintf("module block in %s needs a name label", filename), nil)
	}

	mb := &evaluator.ModuleBlock{
		Name:   block.Labels[0],
		Inputs: make(map[string]hcl.Expression),
	}

	var source string
	for name, attr := range block.Body.Attributes {
		switch name {
		case "source":
			val, err := staticValue(attr.Expr, "module "+mb.Name+" source")
			if err != nil {
				return err
			}
			if val.Type() != cty.String {
				return errors.Parsing(fmt.Sprintf("module %q source must be a string", mb.Name), nil)
			}
			source = val.AsString()
		case "count":
			mb.Count = attr.Expr
		case "for_each":
			mb.ForEach = attr.Expr
		case "condition":
			mb.Condition = attr.Expr
		default:
			mb.Inputs[name] = attr.Expr
		}
	}

	if source != "" && baseDir != "" {
		body, err := l.LoadDir(filepath.Join(baseDir, source))
		if err != nil {
			return errors.ModuleExpansion(mb.Name, err)
		}
		mb.Body = body
	}

	cfg.Modules = append(cfg.Modules, mb)
	return nil
}

// parseData materializes a data source stub from its literal
// attributes. Real data source results come from the surrounding
// system; the literal form keeps local configurations evaluable.
func (l *Loader) parseData(cfg *evaluator.Config, block *hclsyntax.Block, filename string) error {
	if len(block.Labels) != 2 {
		return errors.Parsing(fmt.Sprintf("data block in %s needs type and name labels", filename), nil)
	}
	typ, name := block.Labels[0], block.Labels[1]

	attrs := make(map[string]cty.Value, len(block.Body.Attributes))
	for attrName, attr := range block.Body.Attributes {
		val, err := staticValue(attr.Expr, fmt.Sprintf("data %s.%s %s", typ, name, attrName))
		if err != nil {
			return err
		}
		attrs[attrName] = val
	}

	if cfg.DataSources[typ] == nil {
		cfg.DataSources[typ] = make(map[string]cty.Value)
	}
	if len(attrs) == 0 {
		cfg.DataSources[typ][name] = cty.EmptyObjectVal
	} else {
		cfg.DataSources[typ][name] = cty.ObjectVal(attrs)
	}
	return nil
}

// loadTfvars merges terraform.tfvars values over variable defaults
func (l *Loader) loadTfvars(cfg *evaluator.Config, dir string) error {
	path := filepath.Join(dir, "terraform.tfvars")
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Parsing(fmt.Sprintf("cannot read %s", path), err)
	}

	file, diags := l.parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return errors.Parsing(fmt.Sprintf("parse failed for %s: %s", path, diags.Error()), nil)
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return errors.Parsing(fmt.Sprintf("invalid tfvars in %s: %s", path, diags.Error()), nil)
	}
	for name, attr := range attrs {
		val, err := staticValue(attr.Expr, "tfvars "+name)
		if err != nil {
			return err
		}
		cfg.Variables[name] = val
	}
	return nil
}

// staticValue evaluates an expression that must be a constant
func staticValue(expr hcl.Expression, context string) (cty.Value, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, errors.Parsing(fmt.Sprintf("%s must be a constant: %s", context, diags.Error()), nil)
	}
	return val, nil
}

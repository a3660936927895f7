package evaluator_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zclconf/go-cty/cty"

	"aws-estimation/adapters/terraform"
	"aws-estimation/core/evaluator"
	"aws-estimation/core/types"
	"aws-estimation/internal/config"
	"aws-estimation/internal/errors"
)

func evaluate(t *testing.T, src string) ([]*types.ResourceInstance, error) {
	t.Helper()
	cfg, err := terraform.NewLoader().LoadSource([]byte(src), "test.tf")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return evaluator.New(config.Default().Evaluation).Evaluate(cfg)
}

func mustEvaluate(t *testing.T, src string) []*types.ResourceInstance {
	t.Helper()
	instances, err := evaluate(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return instances
}

func addresses(instances []*types.ResourceInstance) []string {
	addrs := make([]string, len(instances))
	for i, inst := range instances {
		addrs[i] = inst.Address()
	}
	return addrs
}

// TestCountExpansion tests count-based expansion behavior
func TestCountExpansion(t *testing.T) {
	tests := []struct {
		name          string
		count         string
		expectedAddrs []string
	}{
		{
			name:          "count=0 produces nothing",
			count:         "0",
			expectedAddrs: []string{},
		},
		{
			name:          "count=1 produces one indexed instance",
			count:         "1",
			expectedAddrs: []string{"aws_instance.web[0]"},
		},
		{
			name:          "count=3 produces three instances in index order",
			count:         "3",
			expectedAddrs: []string{"aws_instance.web[0]", "aws_instance.web[1]", "aws_instance.web[2]"},
		},
		{
			name:          "count from arithmetic expression",
			count:         "1 + 1",
			expectedAddrs: []string{"aws_instance.web[0]", "aws_instance.web[1]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instances := mustEvaluate(t, `
resource "aws_instance" "web" {
  count         = `+tt.count+`
  instance_type = "t3.micro"
}
`)
			addrs := addresses(instances)
			if len(addrs) != len(tt.expectedAddrs) {
				t.Fatalf("expected %d instances, got %d", len(tt.expectedAddrs), len(addrs))
			}
			for i, want := range tt.expectedAddrs {
				if addrs[i] != want {
					t.Errorf("instance %d: expected %q, got %q", i, want, addrs[i])
				}
			}
		})
	}
}

func TestCountIndexBinding(t *testing.T) {
	instances := mustEvaluate(t, `
resource "aws_instance" "web" {
  count         = 3
  instance_type = "t3.micro"
  name          = "web-${count.index}"
}
`)
	if len(instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(instances))
	}
	for i, inst := range instances {
		want := fmt.Sprintf("web-%d", i)
		if inst.Attributes["name"] != want {
			t.Errorf("instance %d: expected name %q, got %v", i, want, inst.Attributes["name"])
		}
	}
}

func TestCountLimitExceeded(t *testing.T) {
	_, err := evaluate(t, `
resource "aws_instance" "web" {
  count         = 1001
  instance_type = "t3.micro"
}
`)
	if !errors.IsType(err, errors.TypeExpansionLimit) {
		t.Fatalf("expected EXPANSION_LIMIT_EXCEEDED, got %v", err)
	}
}

func TestCountValidation(t *testing.T) {
	tests := []struct {
		name  string
		count string
	}{
		{"negative count", "-1"},
		{"fractional count", "1.5"},
		{"non-numeric count", `"three"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := evaluate(t, `
resource "aws_instance" "web" {
  count         = `+tt.count+`
  instance_type = "t3.micro"
}
`)
			if !errors.IsType(err, errors.TypeInvalidExpression) {
				t.Fatalf("expected INVALID_EXPRESSION, got %v", err)
			}
		})
	}
}

// TestForEachExpansion tests for_each-based expansion behavior
func TestForEachExpansion(t *testing.T) {
	instances := mustEvaluate(t, `
resource "aws_instance" "web" {
  for_each      = { b = "t3.small", a = "t3.micro" }
  instance_type = each.value
}
`)
	// Keys are sorted regardless of declaration order
	wantAddrs := []string{`aws_instance.web["a"]`, `aws_instance.web["b"]`}
	addrs := addresses(instances)
	if len(addrs) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(addrs))
	}
	for i, want := range wantAddrs {
		if addrs[i] != want {
			t.Errorf("instance %d: expected %q, got %q", i, want, addrs[i])
		}
	}
	if instances[0].Attributes["instance_type"] != "t3.micro" {
		t.Errorf(`expected each.value binding "t3.micro", got %v`, instances[0].Attributes["instance_type"])
	}
}

func TestForEachSetOfStrings(t *testing.T) {
	instances := mustEvaluate(t, `
resource "aws_s3_bucket" "logs" {
  for_each = ["archive", "audit"]
  bucket   = "corp-${each.key}"
}
`)
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(instances))
	}
	if instances[0].Attributes["bucket"] != "corp-archive" {
		t.Errorf("expected bucket corp-archive, got %v", instances[0].Attributes["bucket"])
	}
}

func TestForEachLimitExceeded(t *testing.T) {
	var b strings.Builder
	b.WriteString(`
resource "aws_s3_bucket" "logs" {
  for_each = [`)
	for i := 0; i < 1001; i++ {
		fmt.Fprintf(&b, "%q, ", fmt.Sprintf("bucket-%04d", i))
	}
	b.WriteString(`]
  bucket = each.key
}
`)
	_, err := evaluate(t, b.String())
	if !errors.IsType(err, errors.TypeExpansionLimit) {
		t.Fatalf("expected EXPANSION_LIMIT_EXCEEDED, got %v", err)
	}
}

func TestForEachInvalidType(t *testing.T) {
	_, err := evaluate(t, `
resource "aws_instance" "web" {
  for_each      = 42
  instance_type = "t3.micro"
}
`)
	if !errors.IsType(err, errors.TypeInvalidExpression) {
		t.Fatalf("expected INVALID_EXPRESSION, got %v", err)
	}
}

func TestGuardConditions(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		expected  int
	}{
		{"true guard keeps resource", "true", 1},
		{"false guard removes resource", "false", 0},
		{"comparison guard", `var.environment == "prod"`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instances := mustEvaluate(t, `
variable "environment" {
  default = "prod"
}

resource "aws_instance" "web" {
  condition     = `+tt.condition+`
  instance_type = "t3.micro"
}
`)
			if len(instances) != tt.expected {
				t.Errorf("expected %d instances, got %d", tt.expected, len(instances))
			}
		})
	}
}

func TestUnresolvableGuard(t *testing.T) {
	_, err := evaluate(t, `
resource "aws_instance" "web" {
  condition     = "yes"
  instance_type = "t3.micro"
}
`)
	if !errors.IsType(err, errors.TypeUnresolvableConditional) {
		t.Fatalf("expected UNRESOLVABLE_CONDITIONAL, got %v", err)
	}
}

func TestUnresolvedVariableReference(t *testing.T) {
	_, err := evaluate(t, `
resource "aws_instance" "web" {
  instance_type = var.undeclared_type
}
`)
	if !errors.IsType(err, errors.TypeUnresolvedReference) {
		t.Fatalf("expected UNRESOLVED_REFERENCE, got %v", err)
	}
}

func TestVariableAndLocalResolution(t *testing.T) {
	instances := mustEvaluate(t, `
variable "size" {
  default = "t3.large"
}

locals {
  prefix    = "prod"
  full_name = "${local.prefix}-web"
}

resource "aws_instance" "web" {
  instance_type = var.size
  name          = local.full_name
}
`)
	if len(instances) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(instances))
	}
	attrs := instances[0].Attributes
	if attrs["instance_type"] != "t3.large" {
		t.Errorf("expected instance_type t3.large, got %v", attrs["instance_type"])
	}
	if attrs["name"] != "prod-web" {
		t.Errorf("expected name prod-web, got %v", attrs["name"])
	}
}

func TestLocalCycle(t *testing.T) {
	_, err := evaluate(t, `
locals {
  a = local.b
  b = local.a
}

resource "aws_instance" "web" {
  instance_type = local.a
}
`)
	if !errors.IsType(err, errors.TypeReferenceCycle) {
		t.Fatalf("expected REFERENCE_CYCLE, got %v", err)
	}
}

func TestResourceReferences(t *testing.T) {
	instances := mustEvaluate(t, `
resource "aws_instance" "db_host" {
  instance_type = "m5.large"
}

resource "aws_instance" "web" {
  instance_type = aws_instance.db_host.instance_type
}
`)
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(instances))
	}
	// Declaration order is preserved in the output
	if instances[1].DeclaredName != "web" {
		t.Fatalf("expected web second, got %s", instances[1].DeclaredName)
	}
	if instances[1].Attributes["instance_type"] != "m5.large" {
		t.Errorf("expected propagated m5.large, got %v", instances[1].Attributes["instance_type"])
	}
}

func TestResourceReferenceOrderIndependence(t *testing.T) {
	// web references storage but is declared first; reference
	// resolution must reorder evaluation while output keeps
	// declaration order
	instances := mustEvaluate(t, `
resource "aws_instance" "web" {
  instance_type = "t3.micro"
  disk          = aws_ebs_volume.storage.size
}

resource "aws_ebs_volume" "storage" {
  size = 100
}
`)
	addrs := addresses(instances)
	want := []string{"aws_instance.web", "aws_ebs_volume.storage"}
	for i, w := range want {
		if addrs[i] != w {
			t.Errorf("position %d: expected %q, got %q", i, w, addrs[i])
		}
	}
	if instances[0].Attributes["disk"] != int64(100) {
		t.Errorf("expected disk 100, got %v", instances[0].Attributes["disk"])
	}
}

func TestResourceReferenceCycle(t *testing.T) {
	_, err := evaluate(t, `
resource "aws_instance" "a" {
  instance_type = aws_instance.b.instance_type
}

resource "aws_instance" "b" {
  instance_type = aws_instance.a.instance_type
}
`)
	if !errors.IsType(err, errors.TypeReferenceCycle) {
		t.Fatalf("expected REFERENCE_CYCLE, got %v", err)
	}
}

func TestProviderRegionCapture(t *testing.T) {
	instances := mustEvaluate(t, `
provider "aws" {
  region = "eu-west-1"
}

resource "aws_instance" "web" {
  instance_type = "t3.micro"
}
`)
	if len(instances) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(instances))
	}
	if instances[0].ProviderRegion != "eu-west-1" {
		t.Errorf("expected provider region eu-west-1, got %q", instances[0].ProviderRegion)
	}
}

func TestBuiltinFunctions(t *testing.T) {
	instances := mustEvaluate(t, `
variable "names" {
  default = ["a", "b", "c"]
}

resource "aws_instance" "web" {
  count         = length(var.names)
  instance_type = upper("t3.micro")
}
`)
	if len(instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(instances))
	}
	if instances[0].Attributes["instance_type"] != "T3.MICRO" {
		t.Errorf("expected T3.MICRO, got %v", instances[0].Attributes["instance_type"])
	}
}

func TestEvaluationDeterminism(t *testing.T) {
	src := `
variable "zones" {
  default = { z2 = "b", z1 = "a", z3 = "c" }
}

resource "aws_instance" "web" {
  for_each      = var.zones
  instance_type = "t3.micro"
}

resource "aws_ebs_volume" "data" {
  count = 3
  size  = 50
}
`
	first := addresses(mustEvaluate(t, src))
	for run := 0; run < 5; run++ {
		again := addresses(mustEvaluate(t, src))
		if len(again) != len(first) {
			t.Fatalf("run %d: instance count changed: %d vs %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("run %d: order changed at %d: %q vs %q", run, i, again[i], first[i])
			}
		}
	}
}

func TestModuleExpansion(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "modules", "web")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(child, "main.tf"), `
variable "instance_type" {
  default = "t3.micro"
}

resource "aws_instance" "server" {
  instance_type = var.instance_type
}
`)
	writeFile(t, filepath.Join(root, "main.tf"), `
module "frontend" {
  source        = "./modules/web"
  count         = 2
  instance_type = "t3.large"
}
`)

	cfg, err := terraform.NewLoader().LoadDir(root)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	instances, err := evaluator.New(config.Default().Evaluation).Evaluate(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantAddrs := []string{
		"module.frontend[0].aws_instance.server",
		"module.frontend[1].aws_instance.server",
	}
	addrs := addresses(instances)
	if len(addrs) != len(wantAddrs) {
		t.Fatalf("expected %d instances, got %d", len(wantAddrs), len(addrs))
	}
	for i, want := range wantAddrs {
		if addrs[i] != want {
			t.Errorf("instance %d: expected %q, got %q", i, want, addrs[i])
		}
	}
	for _, inst := range instances {
		if inst.Attributes["instance_type"] != "t3.large" {
			t.Errorf("expected module input override t3.large, got %v", inst.Attributes["instance_type"])
		}
	}
}

func TestModuleInputErrorWrapping(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "web")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(child, "main.tf"), `
resource "aws_instance" "server" {
  instance_type = var.instance_type
}
`)
	writeFile(t, filepath.Join(root, "main.tf"), `
module "frontend" {
  source = "./web"
}
`)

	cfg, err := terraform.NewLoader().LoadDir(root)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	_, err = evaluator.New(config.Default().Evaluation).Evaluate(cfg)
	if !errors.IsType(err, errors.TypeModuleExpansion) {
		t.Fatalf("expected MODULE_EXPANSION_FAILED wrapper, got %v", err)
	}
}

func TestModuleDepthLimitExceeded(t *testing.T) {
	// Eleven nested module calls against the default depth limit of ten
	root := t.TempDir()
	dir := root
	for i := 0; i < 11; i++ {
		child := filepath.Join(dir, "inner")
		if err := os.MkdirAll(child, 0o755); err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(dir, "main.tf"), `
module "inner" {
  source = "./inner"
}
`)
		dir = child
	}
	writeFile(t, filepath.Join(dir, "main.tf"), `
resource "aws_instance" "leaf" {
  instance_type = "t3.micro"
}
`)

	cfg, err := terraform.NewLoader().LoadDir(root)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	_, err = evaluator.New(config.Default().Evaluation).Evaluate(cfg)
	if !errors.IsType(err, errors.TypeModuleExpansion) {
		t.Fatalf("expected MODULE_EXPANSION_FAILED, got %v", err)
	}
}

func TestVariableOverrides(t *testing.T) {
	loader := terraform.NewLoader()
	loader.SetVariable("instance_type", cty.StringVal("m5.xlarge"))
	cfg, err := loader.LoadSource([]byte(`
variable "instance_type" {
  default = "t3.micro"
}

resource "aws_instance" "web" {
  instance_type = var.instance_type
}
`), "test.tf")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	instances, err := evaluator.New(config.Default().Evaluation).Evaluate(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if instances[0].Attributes["instance_type"] != "m5.xlarge" {
		t.Errorf("expected override m5.xlarge, got %v", instances[0].Attributes["instance_type"])
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

package costing

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"aws-estimation/core/catalog"
	"aws-estimation/core/types"
	"aws-estimation/db"
	"aws-estimation/internal/config"
)

// seededStore publishes the development pricing set for us-east-1
func seededStore(t *testing.T) *catalog.Store {
	t.Helper()
	ctx := context.Background()

	pricing := db.NewMemoryStore()
	if err := db.Seed(ctx, pricing, "us-east-1"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	catalogs := catalog.NewStore()
	if _, err := db.PublishAll(ctx, pricing, catalogs, config.Default().Pricing.IndexedFields); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	return catalogs
}

func testCatalog(t *testing.T, store *catalog.Store, service types.ServiceCode) *catalog.Catalog {
	t.Helper()
	cat, ok := store.Catalog(service, "us-east-1")
	if !ok {
		t.Fatalf("no catalog published for %s", service)
	}
	return cat
}

func resource(service types.ServiceCode, resourceType string, attrs map[string]interface{}) *types.CanonicalResource {
	return &types.CanonicalResource{
		ServiceCode:  service,
		Region:       "us-east-1",
		ResourceType: resourceType,
		Name:         resourceType + ".test",
		Attributes:   attrs,
	}
}

func assertCost(t *testing.T, result *types.CostResult, want string) {
	t.Helper()
	expected := decimal.RequireFromString(want)
	if !result.MonthlyCost.Equal(expected) {
		t.Errorf("expected monthly cost %s, got %s", expected, result.MonthlyCost)
	}
}

func hasWarningContaining(result *types.CostResult, substr string) bool {
	for _, w := range result.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestComputeAdapter(t *testing.T) {
	store := seededStore(t)
	adapter := NewComputeAdapter(testCatalog(t, store, types.ServiceCompute))

	t.Run("prices hourly rate times 730", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceCompute, "aws_instance",
			map[string]interface{}{"instance_type": "t3.micro"}))
		// 0.0104 * 730
		assertCost(t, result, "7.592")
		if len(result.Warnings) != 0 {
			t.Errorf("expected no warnings, got %v", result.Warnings)
		}
	})

	t.Run("missing instance_type degrades to zero with warning", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceCompute, "aws_instance",
			map[string]interface{}{}))
		assertCost(t, result, "0")
		if !hasWarningContaining(result, "instance_type") {
			t.Errorf("expected warning naming instance_type, got %v", result.Warnings)
		}
	})

	t.Run("unknown instance type is a catalog miss", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceCompute, "aws_instance",
			map[string]interface{}{"instance_type": "x9.colossal"}))
		assertCost(t, result, "0")
		if !hasWarningContaining(result, "no pricing found") {
			t.Errorf("expected pricing-not-found warning, got %v", result.Warnings)
		}
	})
}

func TestComputeAdapterDropsOptionalDimensions(t *testing.T) {
	// The entry's license and capacity dimensions do not match the
	// full filter set; the lookup must succeed on the relaxed retry
	store := catalog.NewStore()
	store.Publish(
		types.PricingVersion{ServiceCode: types.ServiceCompute, Region: "us-east-1", Version: "v1"},
		[]types.PricingEntry{{
			SKU:          "sku-sql",
			ServiceCode:  types.ServiceCompute,
			Region:       "us-east-1",
			Unit:         "Hrs",
			PricePerUnit: decimal.RequireFromString("0.05"),
			Attributes: map[string]string{
				"instanceType":    "t3.medium",
				"tenancy":         "Shared",
				"operatingSystem": "Linux",
				"preInstalledSw":  "SQL Std",
				"capacitystatus":  "AllocatedCapacityReservation",
			},
		}},
		[]string{"instanceType", "tenancy", "operatingSystem"},
	)
	adapter := NewComputeAdapter(testCatalog(t, store, types.ServiceCompute))

	result := adapter.CalculateCost(resource(types.ServiceCompute, "aws_instance",
		map[string]interface{}{"instance_type": "t3.medium"}))
	// 0.05 * 730
	assertCost(t, result, "36.5")
	if result.PricingDetails["sku"] != "sku-sql" {
		t.Errorf("expected the relaxed probe to land on sku-sql, got %v", result.PricingDetails["sku"])
	}
}

func TestDatabaseAdapter(t *testing.T) {
	store := seededStore(t)
	adapter := NewDatabaseAdapter(testCatalog(t, store, types.ServiceRelationalDatabase))

	t.Run("instance plus allocated storage", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceRelationalDatabase, "aws_db_instance",
			map[string]interface{}{
				"instance_class":    "db.t3.micro",
				"engine":            "mysql",
				"allocated_storage": int64(100),
			}))
		// 0.017 * 730 + 0.115 * 100
		assertCost(t, result, "23.91")
	})

	t.Run("multi_az selects the Multi-AZ rate", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceRelationalDatabase, "aws_db_instance",
			map[string]interface{}{
				"instance_class":    "db.t3.micro",
				"multi_az":          true,
				"allocated_storage": int64(20),
			}))
		// 0.034 * 730 + 0.115 * 20
		assertCost(t, result, "27.12")
	})

	t.Run("missing instance_class degrades to zero", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceRelationalDatabase, "aws_db_instance",
			map[string]interface{}{}))
		assertCost(t, result, "0")
		if !hasWarningContaining(result, "instance_class") {
			t.Errorf("expected warning naming instance_class, got %v", result.Warnings)
		}
	})
}

func TestObjectStorageAdapter(t *testing.T) {
	store := seededStore(t)
	adapter := NewObjectStorageAdapter(testCatalog(t, store, types.ServiceObjectStorage))

	t.Run("declared usage", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceObjectStorage, "aws_s3_bucket",
			map[string]interface{}{
				"estimated_storage_gb": int64(500),
				"estimated_requests":   int64(100000),
			}))
		// 0.023 * 500 + 0.005 * 100
		assertCost(t, result, "12")
		if len(result.Warnings) != 0 {
			t.Errorf("expected no warnings, got %v", result.Warnings)
		}
	})

	t.Run("undeclared storage assumes 100 GB with warning", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceObjectStorage, "aws_s3_bucket",
			map[string]interface{}{}))
		// 0.023 * 100 + 0.005 * 10
		assertCost(t, result, "2.35")
		if !hasWarningContaining(result, "estimated_storage_gb") {
			t.Errorf("expected assumption warning, got %v", result.Warnings)
		}
	})
}

func TestBlockStorageAdapter(t *testing.T) {
	store := seededStore(t)
	adapter := NewBlockStorageAdapter(testCatalog(t, store, types.ServiceBlockStorage))

	t.Run("gp3 per GB-month", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceBlockStorage, "aws_ebs_volume",
			map[string]interface{}{"size": int64(100), "type": "gp3"}))
		assertCost(t, result, "8")
	})

	t.Run("io1 adds provisioned IOPS", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceBlockStorage, "aws_ebs_volume",
			map[string]interface{}{"size": int64(100), "type": "io1", "iops": int64(1000)}))
		// 0.125 * 100 + 0.065 * 1000
		assertCost(t, result, "77.5")
	})

	t.Run("missing size degrades to zero", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceBlockStorage, "aws_ebs_volume",
			map[string]interface{}{"type": "gp2"}))
		assertCost(t, result, "0")
		if !hasWarningContaining(result, "size") {
			t.Errorf("expected warning naming size, got %v", result.Warnings)
		}
	})
}

func TestServerlessAdapter(t *testing.T) {
	store := seededStore(t)
	adapter := NewServerlessAdapter(testCatalog(t, store, types.ServiceServerlessFunction))

	t.Run("gb-seconds plus requests", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceServerlessFunction, "aws_lambda_function",
			map[string]interface{}{
				"memory_size":           int64(512),
				"estimated_invocations": int64(1000000),
				"estimated_duration_ms": int64(200),
			}))
		// gb_seconds = 512/1024 * 200/1000 * 1000000 = 100000
		// 100000 * 0.0000166667 + 1000000 * 0.0000002
		assertCost(t, result, "1.86667")
	})

	t.Run("undeclared invocations assume 100000 with warning", func(t *testing.T) {
		result := adapter.CalculateCost(resource(types.ServiceServerlessFunction, "aws_lambda_function",
			map[string]interface{}{}))
		if !hasWarningContaining(result, "estimated_invocations") {
			t.Errorf("expected assumption warning, got %v", result.Warnings)
		}
		if !result.MonthlyCost.IsPositive() {
			t.Errorf("expected positive cost, got %s", result.MonthlyCost)
		}
	})
}

func TestMatcher(t *testing.T) {
	store := seededStore(t)
	matcher := NewMatcher(store)

	t.Run("routes supported services", func(t *testing.T) {
		adapter, ok := matcher.Match(types.ServiceCompute, "us-east-1")
		if !ok {
			t.Fatal("expected adapter for compute")
		}
		if adapter.ServiceCode() != types.ServiceCompute {
			t.Errorf("expected compute adapter, got %s", adapter.ServiceCode())
		}
	})

	t.Run("caches adapters per service and version", func(t *testing.T) {
		a1, _ := matcher.Match(types.ServiceCompute, "us-east-1")
		a2, _ := matcher.Match(types.ServiceCompute, "us-east-1")
		if a1 != a2 {
			t.Error("expected the same adapter instance from the cache")
		}
	})

	t.Run("rejects unsupported service", func(t *testing.T) {
		if _, ok := matcher.Match(types.ServiceUnsupported, "us-east-1"); ok {
			t.Error("expected no adapter for unsupported service")
		}
	})

	t.Run("records consulted versions", func(t *testing.T) {
		if len(matcher.Versions()) == 0 {
			t.Error("expected consulted versions recorded")
		}
	})

	t.Run("catalog miss is not cached across a publish", func(t *testing.T) {
		empty := catalog.NewStore()
		m := NewMatcher(empty)

		before, ok := m.Match(types.ServiceCompute, "eu-west-1")
		if !ok {
			t.Fatal("expected an adapter even without a published catalog")
		}
		if len(m.Versions()) != 0 {
			t.Errorf("expected no versions recorded on a miss, got %v", m.Versions())
		}

		empty.Publish(
			types.PricingVersion{ServiceCode: types.ServiceCompute, Region: "eu-west-1", Version: "v1"},
			[]types.PricingEntry{{
				SKU:          "sku-eu",
				ServiceCode:  types.ServiceCompute,
				Region:       "eu-west-1",
				Unit:         "Hrs",
				PricePerUnit: decimal.RequireFromString("0.0114"),
				Attributes:   map[string]string{"instanceType": "t3.micro", "tenancy": "Shared", "operatingSystem": "Linux"},
			}},
			[]string{"instanceType"},
		)

		after, ok := m.Match(types.ServiceCompute, "eu-west-1")
		if !ok {
			t.Fatal("expected an adapter after the publish")
		}
		if before == after {
			t.Error("expected a fresh adapter bound to the published catalog")
		}
		if _, recorded := m.Versions()["compute/eu-west-1@v1"]; !recorded {
			t.Errorf("expected the published version recorded, got %v", m.Versions())
		}
	})
}

func TestCalculatorEndToEnd(t *testing.T) {
	store := seededStore(t)
	calculator := NewCalculator(store)

	resources := []*types.CanonicalResource{
		resource(types.ServiceCompute, "aws_instance", map[string]interface{}{"instance_type": "t3.micro"}),
		resource(types.ServiceCompute, "aws_instance", map[string]interface{}{"instance_type": "t3.micro"}),
		resource(types.ServiceCompute, "aws_instance", map[string]interface{}{"instance_type": "t3.micro"}),
	}

	results, estimate := calculator.CalculateAll(resources)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, result := range results {
		if !result.MonthlyCost.Equal(decimal.RequireFromString("7.592")) {
			t.Errorf("result %d: expected 7.592, got %s", i, result.MonthlyCost)
		}
	}
	if !estimate.TotalMonthlyCost.Equal(decimal.RequireFromString("22.776")) {
		t.Errorf("expected total 22.776, got %s", estimate.TotalMonthlyCost)
	}
	if estimate.Currency != "USD" {
		t.Errorf("expected USD, got %s", estimate.Currency)
	}
	if estimate.ResourceCount != 3 {
		t.Errorf("expected resource count 3, got %d", estimate.ResourceCount)
	}
	if estimate.ID == "" {
		t.Error("expected a generated estimate ID")
	}
	if len(estimate.PricingVersions) == 0 {
		t.Error("expected pricing versions recorded on the estimate")
	}
}

func TestCalculatorUnsupportedResource(t *testing.T) {
	store := seededStore(t)
	calculator := NewCalculator(store)

	results, estimate := calculator.CalculateAll([]*types.CanonicalResource{
		resource(types.ServiceUnsupported, "aws_vpc", map[string]interface{}{}),
		resource(types.ServiceCompute, "aws_instance", map[string]interface{}{"instance_type": "t3.micro"}),
	})

	if !results[0].MonthlyCost.IsZero() {
		t.Errorf("expected zero cost for unsupported resource, got %s", results[0].MonthlyCost)
	}
	if !hasWarningContaining(results[0], "unsupported") {
		t.Errorf("expected unsupported warning, got %v", results[0].Warnings)
	}
	// The supported resource is still priced
	if !results[1].MonthlyCost.Equal(decimal.RequireFromString("7.592")) {
		t.Errorf("expected 7.592 for the supported resource, got %s", results[1].MonthlyCost)
	}
	if !estimate.TotalMonthlyCost.Equal(decimal.RequireFromString("7.592")) {
		t.Errorf("expected total 7.592, got %s", estimate.TotalMonthlyCost)
	}
}

func TestCalculatorIdentityFields(t *testing.T) {
	store := seededStore(t)
	calculator := NewCalculator(store)

	results, _ := calculator.CalculateAll([]*types.CanonicalResource{
		resource(types.ServiceCompute, "aws_instance", map[string]interface{}{"instance_type": "t3.micro"}),
	})

	result := results[0]
	if result.Name != "aws_instance.test" {
		t.Errorf("expected name copied through, got %s", result.Name)
	}
	if result.ResourceType != "aws_instance" {
		t.Errorf("expected resource type copied through, got %s", result.ResourceType)
	}
	if result.ServiceCode != types.ServiceCompute {
		t.Errorf("expected service code copied through, got %s", result.ServiceCode)
	}
	if result.Region != "us-east-1" {
		t.Errorf("expected region copied through, got %s", result.Region)
	}
}

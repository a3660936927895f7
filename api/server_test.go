package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aws-estimation/core/catalog"
	"aws-estimation/core/engine"
	"aws-estimation/db"
	"aws-estimation/internal/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	pricing := db.NewMemoryStore()
	if err := db.Seed(ctx, pricing, "us-east-1"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	cfg := config.Default()
	catalogs := catalog.NewStore()
	if _, err := db.PublishAll(ctx, pricing, catalogs, cfg.Pricing.IndexedFields); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	return NewServer(engine.New(cfg, catalogs), catalogs, "test")
}

func postEstimate(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/estimate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestEstimateInlineHCL(t *testing.T) {
	server := testServer(t)

	body, err := json.Marshal(EstimateRequest{
		InlineHCL: `
resource "aws_instance" "web" {
  count         = 3
  instance_type = "t3.micro"
}
`,
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := postEstimate(t, server, string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp EstimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.ResourceCount != 3 {
		t.Errorf("expected 3 resources, got %d", resp.ResourceCount)
	}
	if resp.TotalMonthlyCost != "22.7760" {
		t.Errorf("expected total 22.7760, got %s", resp.TotalMonthlyCost)
	}
	if resp.Currency != "USD" {
		t.Errorf("expected USD, got %s", resp.Currency)
	}
	if len(resp.Resources) != 3 {
		t.Fatalf("expected 3 resource lines, got %d", len(resp.Resources))
	}
	if resp.Resources[0].Name != "aws_instance.web[0]" {
		t.Errorf("expected aws_instance.web[0], got %s", resp.Resources[0].Name)
	}
	if resp.Resources[0].MonthlyCost != "7.5920" {
		t.Errorf("expected 7.5920 per instance, got %s", resp.Resources[0].MonthlyCost)
	}
}

func TestEstimateWithVariables(t *testing.T) {
	server := testServer(t)

	body, err := json.Marshal(EstimateRequest{
		InlineHCL: `
variable "instance_count" {
  default = 1
}

resource "aws_instance" "web" {
  count         = var.instance_count
  instance_type = "t3.micro"
}
`,
		Variables: map[string]interface{}{"instance_count": 2},
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := postEstimate(t, server, string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp EstimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ResourceCount != 2 {
		t.Errorf("expected variable override to produce 2 resources, got %d", resp.ResourceCount)
	}
}

func TestEstimateRequestValidation(t *testing.T) {
	server := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"neither source", `{}`},
		{"both sources", `{"inline_hcl": "x", "path": "/tmp/x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postEstimate(t, server, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestEstimateEvaluationError(t *testing.T) {
	server := testServer(t)

	body, err := json.Marshal(EstimateRequest{
		InlineHCL: `
resource "aws_instance" "web" {
  instance_type = var.undeclared
}
`,
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := postEstimate(t, server, string(body))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Code != "UNRESOLVED_REFERENCE" {
		t.Errorf("expected UNRESOLVED_REFERENCE, got %s", resp.Error.Code)
	}
}

func TestHealth(t *testing.T) {
	server := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", resp["status"])
	}
}

func TestPricingVersions(t *testing.T) {
	server := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/pricing/versions", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Versions []PricingVersionInfo `json:"versions"`
		Count    int                  `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// 5 seeded services for one region
	if resp.Count != 5 {
		t.Errorf("expected 5 versions, got %d", resp.Count)
	}
}

// Package normalize converts evaluated resource instances into the
// canonical form consumed by service matching and costing.
//
// Normalization never rejects a resource: unknown types map to the
// "unsupported" service code and are priced as zero with a warning
// downstream.
package normalize

import (
	"fmt"
	"strings"

	"aws-estimation/core/types"
)

// serviceCodes is the static resource-type to service-code table.
// Types absent from this table are unsupported, not errors.
var serviceCodes = map[string]types.ServiceCode{
	"aws_instance":        types.ServiceCompute,
	"aws_db_instance":     types.ServiceRelationalDatabase,
	"aws_s3_bucket":       types.ServiceObjectStorage,
	"aws_ebs_volume":      types.ServiceBlockStorage,
	"aws_lambda_function": types.ServiceServerlessFunction,
}

// Normalizer maps evaluated instances to canonical resources
type Normalizer struct {
	defaultRegion string
}

// New creates a normalizer with the configured default region
func New(defaultRegion string) *Normalizer {
	return &Normalizer{defaultRegion: defaultRegion}
}

// Normalize converts one evaluated instance into a canonical resource
func (n *Normalizer) Normalize(instance *types.ResourceInstance) *types.CanonicalResource {
	code, ok := serviceCodes[instance.ResourceType]
	if !ok {
		code = types.ServiceUnsupported
	}

	return &types.CanonicalResource{
		ServiceCode:  code,
		Region:       n.resolveRegion(instance),
		ResourceType: instance.ResourceType,
		Name:         instance.Address(),
		Attributes:   Flatten(instance.Attributes),
	}
}

// NormalizeAll converts a batch, preserving input order
func (n *Normalizer) NormalizeAll(instances []*types.ResourceInstance) []*types.CanonicalResource {
	resources := make([]*types.CanonicalResource, len(instances))
	for i, instance := range instances {
		resources[i] = n.Normalize(instance)
	}
	return resources
}

// resolveRegion derives the region: explicit region attribute, then the
// availability zone with the zone letter stripped, then the provider
// region captured at evaluation time, then the configured default.
func (n *Normalizer) resolveRegion(instance *types.ResourceInstance) string {
	if region, ok := instance.Attributes["region"].(string); ok && region != "" {
		return region
	}
	if az, ok := instance.Attributes["availability_zone"].(string); ok && az != "" {
		return stripZoneSuffix(az)
	}
	if instance.ProviderRegion != "" {
		return instance.ProviderRegion
	}
	return n.defaultRegion
}

// stripZoneSuffix turns an availability zone into its region
// (us-east-1a -> us-east-1)
func stripZoneSuffix(az string) string {
	if az == "" {
		return az
	}
	last := az[len(az)-1]
	if last >= 'a' && last <= 'z' && strings.ContainsAny(az, "0123456789") {
		return az[:len(az)-1]
	}
	return az
}

// Flatten collapses nested maps and lists into single-level dotted keys
// (e.g., "ebs_block_device.0.volume_size"), the shape cost adapters
// expect.
func Flatten(attrs map[string]interface{}) map[string]interface{} {
	flat := make(map[string]interface{}, len(attrs))
	for key, value := range attrs {
		flattenInto(flat, key, value)
	}
	return flat
}

func flattenInto(flat map[string]interface{}, prefix string, value interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		if len(v) == 0 {
			flat[prefix] = v
			return
		}
		for key, nested := range v {
			flattenInto(flat, prefix+"."+key, nested)
		}
	case []interface{}:
		if len(v) == 0 {
			flat[prefix] = v
			return
		}
		for i, nested := range v {
			flattenInto(flat, fmt.Sprintf("%s.%d", prefix, i), nested)
		}
	default:
		flat[prefix] = value
	}
}

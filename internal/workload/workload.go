// Package workload loads a declarative workload manifest: an HCL file
// describing a sequence of named parallel loops and the synchronization
// each one requires against an earlier loop.
package workload

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Sync names the two dependency kinds a manifest loop block may request
// against its DependsOn loop. The loader leaves Sync empty when the block
// omits it; cmd/pforctl runs a loop with a DependsOn and an empty Sync as
// one_on_one, and a loop with no DependsOn as NoSync.
const (
	SyncOneOnOne     = "one_on_one"
	SyncNeighborhood = "neighborhood"
)

// LoopSpec is the format-agnostic representation of a manifest's `loop`
// block: bounds for a box-shaped iteration range, plus an optional
// dependency on an earlier loop by name.
type LoopSpec struct {
	Name       string
	From       []int64
	To         []int64
	DependsOn  string
	Sync       string
	Grain      int64
	SourceFile string
}

// hclVariable is a top-level `variable` block supplying a default cty
// value that loop bodies may reference from their grain expression, the
// manifest's mechanism for grid-wide constants shared across loops.
type hclVariable struct {
	Name    string         `hcl:"name,label"`
	Default hcl.Expression `hcl:"default"`
}

// hclLoop is the wire shape decoded directly from HCL. Grain is kept as a
// raw expression rather than a plain int64 so it may reference a
// manifest-level variable (e.g. grain = var.default_grain), deferring
// evaluation to an hcl.EvalContext built from the manifest's variable
// blocks.
type hclLoop struct {
	Name      string         `hcl:"name,label"`
	From      []int64        `hcl:"from"`
	To        []int64        `hcl:"to"`
	DependsOn *string        `hcl:"depends_on,optional"`
	Sync      *string        `hcl:"sync,optional"`
	Grain     hcl.Expression `hcl:"grain,optional"`
}

// hclManifest is the top-level structure of a workload manifest file.
type hclManifest struct {
	Variables []hclVariable `hcl:"variable,block"`
	Loops     []hclLoop     `hcl:"loop,block"`
}

// Load parses and validates the manifest at path, returning its loop
// blocks in declaration order.
func Load(path string) ([]LoopSpec, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("workload: parse %s: %w", path, diags)
	}

	var manifest hclManifest
	if diags := gohcl.DecodeBody(file.Body, nil, &manifest); diags.HasErrors() {
		return nil, fmt.Errorf("workload: decode %s: %w", path, diags)
	}

	evalCtx, err := buildEvalContext(manifest.Variables, path)
	if err != nil {
		return nil, err
	}

	specs := make([]LoopSpec, 0, len(manifest.Loops))
	seen := make(map[string]bool, len(manifest.Loops))
	for _, l := range manifest.Loops {
		spec, err := toSpec(l, path, evalCtx)
		if err != nil {
			return nil, err
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("workload: %s: duplicate loop name %q", path, spec.Name)
		}
		if spec.DependsOn != "" && !seen[spec.DependsOn] {
			return nil, fmt.Errorf("workload: %s: loop %q depends_on %q, which is not declared earlier in the file", path, spec.Name, spec.DependsOn)
		}
		seen[spec.Name] = true
		specs = append(specs, spec)
	}
	return specs, nil
}

// buildEvalContext resolves each variable block's default expression into
// a cty.Value and exposes them all under the "var" namespace, so a loop's
// grain expression can reference "var.name" the same way other manifest
// attributes do.
func buildEvalContext(vars []hclVariable, path string) (*hcl.EvalContext, error) {
	values := make(map[string]cty.Value, len(vars))
	for _, v := range vars {
		val, diags := v.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("workload: %s: variable %q: %w", path, v.Name, diags)
		}
		values[v.Name] = val
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(values)},
	}, nil
}

func toSpec(l hclLoop, path string, evalCtx *hcl.EvalContext) (LoopSpec, error) {
	if len(l.From) == 0 || len(l.From) != len(l.To) {
		return LoopSpec{}, fmt.Errorf("workload: %s: loop %q: from and to must be non-empty and equal length", path, l.Name)
	}
	for i := range l.From {
		if l.From[i] >= l.To[i] {
			return LoopSpec{}, fmt.Errorf("workload: %s: loop %q: from[%d] must be < to[%d]", path, l.Name, i, i)
		}
	}
	spec := LoopSpec{
		Name:       l.Name,
		From:       l.From,
		To:         l.To,
		SourceFile: path,
		Grain:      1,
	}
	if l.DependsOn != nil {
		spec.DependsOn = *l.DependsOn
	}
	if l.Grain != nil {
		val, diags := l.Grain.Value(evalCtx)
		if diags.HasErrors() {
			return LoopSpec{}, fmt.Errorf("workload: %s: loop %q: grain: %w", path, l.Name, diags)
		}
		// gohcl fills an absent optional expression attribute with one that
		// evaluates to null, so an omitted grain shows up here as a null value.
		if !val.IsNull() {
			var grain int64
			if err := gocty.FromCtyValue(val, &grain); err != nil {
				return LoopSpec{}, fmt.Errorf("workload: %s: loop %q: grain: %w", path, l.Name, err)
			}
			if grain < 1 {
				return LoopSpec{}, fmt.Errorf("workload: %s: loop %q: grain must be >= 1", path, l.Name)
			}
			spec.Grain = grain
		}
	}
	if l.Sync != nil {
		switch *l.Sync {
		case SyncOneOnOne, SyncNeighborhood:
			spec.Sync = *l.Sync
		default:
			return LoopSpec{}, fmt.Errorf("workload: %s: loop %q: unknown sync %q, want %q or %q", path, l.Name, *l.Sync, SyncOneOnOne, SyncNeighborhood)
		}
		if spec.DependsOn == "" {
			return LoopSpec{}, fmt.Errorf("workload: %s: loop %q: sync requires depends_on", path, l.Name)
		}
	}
	return spec, nil
}

// Package plan evaluates kiln.hcl plan files into products.
package plan

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

var validNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.\-]*$`)

// Loader implements ports.PlanLoader for HCL plan files. Files ending in .json are
// read with the HCL JSON syntax.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load decodes the products defined by one plan file.
func (l *Loader) Load(_ context.Context, plan domain.FileContent) ([]*domain.Product, error) {
	parser := hclparse.NewParser()

	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	if strings.HasSuffix(plan.Path, ".json") {
		file, diags = parser.ParseJSON(plan.Data, plan.Path)
	} else {
		file, diags = parser.ParseHCL(plan.Data, plan.Path)
	}
	if diags.HasErrors() {
		return nil, diagError(plan.Path, diags)
	}

	var parsed planFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, diagError(plan.Path, diags)
	}

	products := make([]*domain.Product, 0, len(parsed.Products))
	seen := make(map[string]struct{}, len(parsed.Products))
	for _, block := range parsed.Products {
		if _, dup := seen[block.Name]; dup {
			return nil, diagError(plan.Path, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Duplicate product",
				Detail:   "Product " + block.Name + " is defined more than once in this file.",
			}})
		}
		seen[block.Name] = struct{}{}

		p, diags := decodeProduct(plan.Path, block)
		if diags.HasErrors() {
			return nil, diagError(plan.Path, diags)
		}
		products = append(products, p)
	}
	return products, nil
}

func decodeProduct(source string, block *productBlock) (*domain.Product, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	if !validNameRegex.MatchString(block.Name) {
		return nil, diags.Append(invalid(nil, "Invalid product name", "Product names may only contain letters, digits, '_', '.' and '-'."))
	}

	actions := make([]domain.Action, 0, len(block.Actions))
	for _, ab := range block.Actions {
		a, actionDiags := decodeAction(ab)
		diags = append(diags, actionDiags...)
		actions = append(actions, a)
	}

	opts := []domain.ProductOption{domain.WithSource(source), domain.WithDoc(block.Doc)}
	if block.Intermediate {
		opts = append(opts, domain.AsIntermediate())
	}
	if globs, ok, globDiags := optionalGlobs(block.Inputs); ok {
		opts = append(opts, domain.WithInputs(globs))
	} else {
		diags = append(diags, globDiags...)
	}
	if globs, ok, globDiags := optionalGlobs(block.Outputs); ok {
		opts = append(opts, domain.WithOutputs(globs))
	} else {
		diags = append(diags, globDiags...)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return domain.NewProduct(block.Name, actions, opts...), diags
}

func decodeAction(block *actionBlock) (domain.Action, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	if !validNameRegex.MatchString(block.Tool) {
		diags = diags.Append(invalid(nil, "Invalid tool name", "Tool names may only contain letters, digits, '_', '.' and '-'."))
	}

	inputs, err := domain.ParseGlobSet(block.Inputs...)
	if err != nil {
		diags = diags.Append(invalid(nil, "Invalid input glob", err.Error()))
	}
	outputs, err := domain.ParseGlobSet(block.Outputs...)
	if err != nil {
		diags = diags.Append(invalid(nil, "Invalid output glob", err.Error()))
	}

	options, optDiags := decodeOptions(block.Options)
	diags = append(diags, optDiags...)

	return domain.Action{
		Tool:    block.Tool,
		Inputs:  inputs,
		Outputs: outputs,
		Options: options,
	}, diags
}

// optionalGlobs reports ok=false when the attribute is absent or invalid.
func optionalGlobs(expr hcl.Expression) (domain.GlobSet, bool, hcl.Diagnostics) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() || val.IsNull() {
		return domain.GlobSet{}, false, diags
	}

	var patterns []string
	list, err := convert.Convert(val, cty.List(cty.String))
	if err == nil {
		err = gocty.FromCtyValue(list, &patterns)
	}
	if err != nil {
		return domain.GlobSet{}, false, diags.Append(invalid(expr.Range().Ptr(), "Invalid glob list", err.Error()))
	}
	globs, err := domain.ParseGlobSet(patterns...)
	if err != nil {
		return domain.GlobSet{}, false, diags.Append(invalid(expr.Range().Ptr(), "Invalid glob", err.Error()))
	}
	return globs, true, diags
}

func invalid(subject *hcl.Range, summary, detail string) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  subject,
	}
}

func diagError(path string, diags hcl.Diagnostics) error {
	err := zerr.Wrap(errors.Join(domain.ErrPlanParse, diags), "invalid plan file")
	if len(diags) > 0 && diags[0].Subject != nil {
		err = zerr.With(err, "line", diags[0].Subject.Start.Line)
	}
	return zerr.With(err, "path", path)
}

// ctyToGo converts a known cty value into an option value. Objects and maps become
// Options with their keys sorted, numbers become int64 when integral.
func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, zerr.New("option value is not known")
	}

	ty := val.Type()
	switch {
	case ty.Equals(cty.String):
		return val.AsString(), nil
	case ty.Equals(cty.Bool):
		return val.True(), nil
	case ty.Equals(cty.Number):
		bf := val.AsBigFloat()
		if i, acc := bf.Int64(); acc == 0 && bf.IsInt() {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			v, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		var entries []domain.Option
		for it := val.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			v, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			entries = append(entries, domain.Option{Name: k.AsString(), Value: v})
		}
		return domain.NewOptions(entries...), nil
	default:
		return nil, zerr.With(zerr.New("unsupported option type"), "type", ty.FriendlyName())
	}
}

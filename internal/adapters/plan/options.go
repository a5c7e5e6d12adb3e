package plan

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"go.trai.ch/kiln/internal/core/domain"
)

// decodeOptions turns the options attribute of an action into Options. Object
// constructors written in native syntax keep their source order.
func decodeOptions(expr hcl.Expression) (domain.Options, hcl.Diagnostics) {
	v, diags := optionValue(expr)
	if diags.HasErrors() {
		return domain.Options{}, diags
	}
	switch opts := v.(type) {
	case nil:
		return domain.Options{}, diags
	case domain.Options:
		return opts, diags
	default:
		return domain.Options{}, diags.Append(invalid(expr.Range().Ptr(), "Invalid options", "Options must be an object."))
	}
}

func optionValue(expr hcl.Expression) (any, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.ObjectConsExpr:
		var diags hcl.Diagnostics
		entries := make([]domain.Option, 0, len(e.Items))
		for _, item := range e.Items {
			key, keyDiags := item.KeyExpr.Value(nil)
			diags = append(diags, keyDiags...)
			if keyDiags.HasErrors() {
				continue
			}
			if key.IsNull() || key.Type() != cty.String {
				diags = diags.Append(invalid(item.KeyExpr.Range().Ptr(), "Invalid option name", "Option names must be strings."))
				continue
			}
			v, valDiags := optionValue(item.ValueExpr)
			diags = append(diags, valDiags...)
			entries = append(entries, domain.Option{Name: key.AsString(), Value: v})
		}
		return domain.NewOptions(entries...), diags

	case *hclsyntax.TupleConsExpr:
		var diags hcl.Diagnostics
		out := make([]any, 0, len(e.Exprs))
		for _, elem := range e.Exprs {
			v, elemDiags := optionValue(elem)
			diags = append(diags, elemDiags...)
			out = append(out, v)
		}
		return out, diags

	default:
		val, diags := expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		v, err := ctyToGo(val)
		if err != nil {
			return nil, diags.Append(invalid(expr.Range().Ptr(), "Invalid option value", err.Error()))
		}
		return v, diags
	}
}

package shell

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Render evaluates a command template to a string.
func Render(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	if expr == nil {
		return "", fmt.Errorf("no command template")
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() || !val.IsKnown() {
		return "", fmt.Errorf("command template evaluated to null")
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("command template must produce a string, got %s: %w", val.Type().FriendlyName(), err)
	}
	return str.AsString(), nil
}

// withVars returns a copy of evalCtx with extra top-level variables.
func withVars(evalCtx *hcl.EvalContext, vars map[string]cty.Value) *hcl.EvalContext {
	out := &hcl.EvalContext{
		Variables: make(map[string]cty.Value, len(evalCtx.Variables)+len(vars)),
		Functions: evalCtx.Functions,
	}
	for k, v := range evalCtx.Variables {
		out.Variables[k] = v
	}
	for k, v := range vars {
		out.Variables[k] = v
	}
	return out
}

// This file translates decoded HCL blocks into the format-agnostic pipeline
// model defined in the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/shipgrid/internal/config"
	"github.com/vk/shipgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

func (l *Loader) translate(ctx context.Context, root *fileRoot) (*config.Pipeline, error) {
	model := &config.Pipeline{
		Params:    make(map[string]string),
		Toolchain: make(map[string]hcl.Expression),
	}

	for _, b := range root.Params {
		attrs, diags := b.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid params block: %w", diags)
		}
		for name, attr := range attrs {
			s, err := staticString(attr.Expr)
			if err != nil {
				return nil, fmt.Errorf("param %q: %w", name, err)
			}
			model.Params[name] = s
		}
	}

	for _, b := range root.Toolchain {
		attrs, diags := b.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid toolchain block: %w", diags)
		}
		for name, attr := range attrs {
			model.Toolchain[name] = attr.Expr
		}
	}

	if len(root.Clean) > 1 {
		return nil, fmt.Errorf("clean block declared more than once")
	}
	for _, b := range root.Clean {
		c, err := translateClean(ctx, b)
		if err != nil {
			return nil, err
		}
		model.Clean = c
	}

	if len(root.Bundle) > 1 {
		return nil, fmt.Errorf("bundle block declared more than once")
	}
	for _, b := range root.Bundle {
		model.Bundle = translateBundle(ctx, b)
	}

	for _, s := range root.Stages {
		model.Stages = append(model.Stages, translateStage(ctx, s))
	}
	return model, nil
}

func translateStage(ctx context.Context, s *stageBlock) *config.Stage {
	st := &config.Stage{
		Name:        s.Name,
		Description: s.Description,
		DependsOn:   s.DependsOn,
		Fatal:       s.Fatal,
		Requires:    s.Requires,
		Action:      s.Action,
	}
	if isExprDefined(ctx, s.Run, "run") {
		st.Run = s.Run
	}
	return st
}

func translateClean(ctx context.Context, b *cleanBlock) (*config.Clean, error) {
	c := &config.Clean{}
	var err error
	if c.Paths, err = exprList(ctx, b.Paths, "paths"); err != nil {
		return nil, err
	}
	if c.Patterns, err = exprList(ctx, b.Patterns, "patterns"); err != nil {
		return nil, err
	}
	if c.Skip, err = exprList(ctx, b.Skip, "skip"); err != nil {
		return nil, err
	}
	return c, nil
}

func translateBundle(ctx context.Context, b *bundleBlock) *config.Bundle {
	out := &config.Bundle{Root: b.Root, Output: b.Output}
	if isExprDefined(ctx, b.UploadURL, "upload_url") {
		out.UploadURL = b.UploadURL
	}
	for _, e := range b.Entries {
		out.Entries = append(out.Entries, &config.BundleEntry{Path: e.Path, Base: e.Base})
	}
	return out
}

// exprList splits a static list expression into its element templates.
func exprList(ctx context.Context, expr hcl.Expression, attrName string) ([]hcl.Expression, error) {
	if !isExprDefined(ctx, expr, attrName) {
		return nil, nil
	}
	items, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, fmt.Errorf("clean %s: %w", attrName, diags)
	}
	return items, nil
}

// staticString evaluates an expression with no variables and converts the
// result to a string.
func staticString(expr hcl.Expression) (string, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	if v.IsNull() {
		return "", nil
	}
	v, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", err
	}
	return v.AsString(), nil
}

// isExprDefined checks if an HCL expression was actually present in the
// source. Omitted optional attributes are decoded as zero-width placeholder
// expressions, so a nil check alone is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	isDefined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

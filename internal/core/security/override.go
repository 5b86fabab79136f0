package security

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/cel-go/cel"
)

// DefaultOverridePolicy grants override to holders of the override permission or the admin role.
const DefaultOverridePolicy = `"documents.override" in permissions || "admin" in roles`

// OverrideRequest describes an attempt to use an override status.
type OverrideRequest struct {
	UserID      string
	Roles       []string
	Permissions []string
	Kind        string
	From        string
	To          string
}

// OverrideGuard decides whether an actor may perform an override transition.
type OverrideGuard interface {
	AllowOverride(ctx context.Context, req OverrideRequest) (bool, error)
}

// CELGuard evaluates a compiled CEL boolean expression.
//
// Variables: user_id, kind, from, to (string); roles, permissions (list of string).
type CELGuard struct {
	expr    string
	program cel.Program
}

// NewCELGuard compiles expr. An empty expr uses DefaultOverridePolicy.
func NewCELGuard(expr string) (*CELGuard, error) {
	if expr == "" {
		expr = DefaultOverridePolicy
	}

	env, err := cel.NewEnv(
		cel.Variable("user_id", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("from", cel.StringType),
		cel.Variable("to", cel.StringType),
		cel.Variable("roles", cel.ListType(cel.StringType)),
		cel.Variable("permissions", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile override policy: %w", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("override policy must evaluate to bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build override program: %w", err)
	}

	return &CELGuard{expr: expr, program: prg}, nil
}

// Expression returns the source of the compiled policy.
func (g *CELGuard) Expression() string {
	return g.expr
}

// AllowOverride implements OverrideGuard.
func (g *CELGuard) AllowOverride(ctx context.Context, req OverrideRequest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	out, _, err := g.program.Eval(map[string]any{
		"user_id":     req.UserID,
		"kind":        req.Kind,
		"from":        req.From,
		"to":          req.To,
		"roles":       nonNil(req.Roles),
		"permissions": nonNil(req.Permissions),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate override policy: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("override policy returned %T", out.Value())
	}
	return allowed, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// PermissionGuard allows holders of PermissionOverride or RoleAdmin.
// It is the non-CEL equivalent of DefaultOverridePolicy.
type PermissionGuard struct{}

// AllowOverride implements OverrideGuard.
func (PermissionGuard) AllowOverride(_ context.Context, req OverrideRequest) (bool, error) {
	return slices.Contains(req.Permissions, string(PermissionOverride)) ||
		slices.Contains(req.Roles, string(RoleAdmin)), nil
}

var (
	_ OverrideGuard = (*CELGuard)(nil)
	_ OverrideGuard = PermissionGuard{}
)

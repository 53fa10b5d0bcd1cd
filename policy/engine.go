// Package policy evaluates model tool calls against a rego policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is the document a tool call is evaluated against.
type Input struct {
	ToolName    string `json:"tool_name"`
	Origin      string `json:"origin"`
	Stage       string `json:"stage"`
	UserID      string `json:"user_id"`
	DraftLength int    `json:"draft_length"`
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Decision string
	Reason   string
}

// Allowed reports whether the call may run.
func (d Decision) Allowed() bool {
	return d.Decision != DecisionBlock
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.tool_policy"),
		rego.Module("tool_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks a tool call against the policy. The policy package is
// expected to define a string rule "decision" and optionally "reason".
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	doc := map[string]interface{}{
		"tool_name":    input.ToolName,
		"origin":       input.Origin,
		"stage":        input.Stage,
		"user_id":      input.UserID,
		"draft_length": input.DraftLength,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{Decision: DecisionAllow, Reason: "default"}, nil
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	d := Decision{Decision: DecisionAllow}
	if s, ok := obj["decision"].(string); ok && s != "" {
		d.Decision = s
	}
	if s, ok := obj["reason"].(string); ok {
		d.Reason = s
	}
	return d, nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package tool_policy

default decision = "allow"

default reason = ""

# Refuse to overwrite a saved plan with nothing.
decision = "block" {
	empty_persist
}

reason = "no draft content to persist" {
	empty_persist
}

empty_persist {
	input.tool_name == "persist_draft"
	input.origin == "model"
	input.draft_length == 0
}
`

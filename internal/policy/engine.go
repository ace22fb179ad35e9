// Package policy guards agent-profile updates with an OPA policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine evaluates the agent-config update policy.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.agent_config.decision"),
		rego.Module("agent_config.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks a profile update. Input is a map with keys agent_type and
// fields (the requested changes). Returns decision (allow, block) and an
// optional reason.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy defines a default, so an empty result means the module
		// is malformed rather than "no opinion".
		return "allow", "default", nil
	}

	val := results[0].Expressions[0].Value
	switch v := val.(type) {
	case string:
		return v, "", nil
	case map[string]interface{}:
		decision, _ := v["decision"].(string)
		reason, _ := v["reason"].(string)
		if decision == "" {
			decision = "allow"
		}
		return decision, reason, nil
	}

	return "allow", "unexpected return type", nil
}

// DefaultPolicy bounds agent-profile updates: prompts may not be blanked and
// turn limits and priorities must stay in a sane range.
const DefaultPolicy = `
package agent_config

default decision = "allow"

decision = {"decision": "block", "reason": "system_prompt must not be empty"} {
	input.fields.system_prompt == ""
}

decision = {"decision": "block", "reason": "max_turns out of range"} {
	input.fields.max_turns < 1
}

decision = {"decision": "block", "reason": "max_turns out of range"} {
	input.fields.max_turns > 100
}

decision = {"decision": "block", "reason": "priority out of range"} {
	input.fields.priority < 1
}

decision = {"decision": "block", "reason": "priority out of range"} {
	input.fields.priority > 10
}

decision = {"decision": "block", "reason": "keywords must not be empty"} {
	count(input.fields.keywords) == 0
}
`

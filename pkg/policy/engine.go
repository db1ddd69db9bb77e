package policy

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"

	"github.com/flexelog/logbookcfg/pkg/config"
)

// Engine evaluates Rego policies against the logbooks of a configuration.
// It is safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	policies map[string]*compiledPolicy
	order    []string
	logger   zerolog.Logger
}

// compiledPolicy represents a compiled Rego policy.
type compiledPolicy struct {
	policy   *Policy
	query    rego.PreparedEvalQuery
	compiled time.Time
}

// NewEngine creates a policy engine with the built-in policies loaded.
func NewEngine(logger zerolog.Logger) (*Engine, error) {
	e := &Engine{
		policies: make(map[string]*compiledPolicy),
		logger:   logger.With().Str("component", "policy-engine").Logger(),
	}

	if err := e.loadBuiltinPolicies(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load built-in policies: %w", err)
	}

	return e, nil
}

// AddPolicy compiles p and adds it, replacing a policy of the same name.
func (e *Engine) AddPolicy(ctx context.Context, p Policy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.compileAndStorePolicy(ctx, &p)
}

// LoadPolicies loads and compiles the policy files found under paths.
func (e *Engine) LoadPolicies(ctx context.Context, paths []string) error {
	loader := NewLoader(e.logger)
	policies, err := loader.LoadFromPaths(ctx, paths)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range policies {
		if err := e.compileAndStorePolicy(ctx, &policies[i]); err != nil {
			return fmt.Errorf("failed to compile policy %s: %w", policies[i].Name, err)
		}
	}

	e.logger.Info().
		Int("count", len(policies)).
		Msg("Policies loaded successfully")

	return nil
}

// Inputs builds one policy input per logbook of cfg, resolved under conds.
func Inputs(cfg *config.Config, conds config.Conditions) ([]Input, error) {
	tokens := conds.Tokens()
	if tokens == nil {
		tokens = []string{}
	}

	scope := cfg.NewScope()
	for _, token := range tokens {
		scope.AddCondition(token)
	}

	var inputs []Input
	for _, name := range cfg.Logbooks() {
		schema, err := scope.AttributesFor(name)
		if err != nil {
			return nil, err
		}

		settings := make(map[string]string)
		for _, section := range []string{config.GlobalSection, name} {
			for _, key := range cfg.Keys(section) {
				if v := scope.String(name, key, ""); v != "" {
					settings[config.Fold(key)] = v
				}
			}
		}

		inputs = append(inputs, Input{
			Logbook:    name,
			Conditions: tokens,
			Attributes: schema.Attributes(),
			Settings:   settings,
		})
	}
	return inputs, nil
}

// Evaluate runs every enabled policy against every logbook of cfg.
// A policy that fails to evaluate is reported in Result.Warnings and does
// not stop the others.
func (e *Engine) Evaluate(ctx context.Context, cfg *config.Config, conds config.Conditions) (*Result, error) {
	startTime := time.Now()

	inputs, err := Inputs(cfg, conds)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	result := &Result{
		Allowed:           true,
		EvaluatedPolicies: make([]string, 0, len(e.order)),
		Logbooks:          len(inputs),
	}

	for _, name := range e.order {
		cp := e.policies[name]
		if !cp.policy.Enabled {
			continue
		}
		result.EvaluatedPolicies = append(result.EvaluatedPolicies, name)

		for i := range inputs {
			violations, err := e.evaluatePolicy(ctx, cp, &inputs[i])
			if err != nil {
				e.logger.Error().Err(err).
					Str("policy", name).
					Str("logbook", inputs[i].Logbook).
					Msg("Policy evaluation failed")
				result.Warnings = append(result.Warnings, fmt.Sprintf("policy %s evaluation failed: %v", name, err))
				continue
			}
			result.Violations = append(result.Violations, violations...)
		}
	}

	for i := range result.Violations {
		if result.Violations[i].Severity == SeverityError {
			result.Allowed = false
			break
		}
	}
	result.Duration = time.Since(startTime)

	e.logger.Debug().
		Int("logbooks", result.Logbooks).
		Int("violations", len(result.Violations)).
		Dur("duration", result.Duration).
		Msg("Policy evaluation completed")

	return result, nil
}

// evaluatePolicy evaluates a single compiled policy against one logbook.
func (e *Engine) evaluatePolicy(ctx context.Context, cp *compiledPolicy, input *Input) ([]Violation, error) {
	results, err := cp.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("policy evaluation error: %w", err)
	}

	var violations []Violation
	for _, result := range results {
		if len(result.Expressions) == 0 {
			continue
		}
		// The deny rule evaluates to a set, which arrives as a slice.
		denySet, ok := result.Expressions[0].Value.([]interface{})
		if !ok {
			continue
		}
		for _, d := range denySet {
			violations = append(violations, createViolation(cp.policy, d, input))
		}
	}

	return violations, nil
}

// createViolation creates a Violation from one element of a deny set.
func createViolation(policy *Policy, result interface{}, input *Input) Violation {
	violation := Violation{
		Policy:   policy.Name,
		Logbook:  input.Logbook,
		Severity: policy.Severity,
	}

	switch v := result.(type) {
	case string:
		violation.Message = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			violation.Message = msg
		}
		if sev, ok := v["severity"].(string); ok && Severity(sev).Valid() {
			violation.Severity = Severity(sev)
		}
		if attr, ok := v["attribute"].(string); ok {
			violation.Attribute = attr
		}
		if fix, ok := v["remediation"].(string); ok {
			violation.Remediation = fix
		}
	default:
		violation.Message = fmt.Sprintf("%v", result)
	}

	return violation
}

// compileAndStorePolicy compiles a policy and stores it. The caller holds
// the write lock.
func (e *Engine) compileAndStorePolicy(ctx context.Context, policy *Policy) error {
	if policy.Name == "" {
		return fmt.Errorf("policy name is required")
	}
	if policy.Severity == "" {
		policy.Severity = SeverityWarning
	}
	if !policy.Severity.Valid() {
		return fmt.Errorf("policy %s: unknown severity %q", policy.Name, policy.Severity)
	}

	module, err := ast.ParseModule(policy.Name, policy.Rego)
	if err != nil {
		return fmt.Errorf("failed to parse policy: %w", err)
	}
	if module == nil {
		return fmt.Errorf("policy %s is empty", policy.Name)
	}

	r := rego.New(
		rego.Module(policy.Name, policy.Rego),
		rego.Query(module.Package.Path.String()+".deny"),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare query: %w", err)
	}

	if _, exists := e.policies[policy.Name]; !exists {
		e.order = append(e.order, policy.Name)
	}
	e.policies[policy.Name] = &compiledPolicy{
		policy:   policy,
		query:    query,
		compiled: time.Now(),
	}

	e.logger.Debug().
		Str("policy", policy.Name).
		Msg("Policy compiled successfully")

	return nil
}

// loadBuiltinPolicies loads the built-in policies.
func (e *Engine) loadBuiltinPolicies(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	builtins := GetBuiltinPolicies()
	for i := range builtins {
		if err := e.compileAndStorePolicy(ctx, &builtins[i]); err != nil {
			return fmt.Errorf("failed to compile built-in policy %s: %w", builtins[i].Name, err)
		}
	}

	e.logger.Debug().
		Int("count", len(builtins)).
		Msg("Built-in policies loaded")

	return nil
}

// GetPolicy returns a policy by name.
func (e *Engine) GetPolicy(name string) (*Policy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cp, exists := e.policies[name]
	if !exists {
		return nil, fmt.Errorf("policy not found: %s", name)
	}

	return cp.policy, nil
}

// ListPolicies returns all loaded policies in the order they were added.
func (e *Engine) ListPolicies() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	policies := make([]Policy, 0, len(e.order))
	for _, name := range e.order {
		policies = append(policies, *e.policies[name].policy)
	}

	return policies
}

// EnablePolicy enables a policy by name.
func (e *Engine) EnablePolicy(name string) error {
	return e.setEnabled(name, true)
}

// DisablePolicy disables a policy by name.
func (e *Engine) DisablePolicy(name string) error {
	return e.setEnabled(name, false)
}

func (e *Engine) setEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp, exists := e.policies[name]
	if !exists {
		return fmt.Errorf("policy not found: %s", name)
	}

	cp.policy.Enabled = enabled
	e.logger.Info().Str("policy", name).Bool("enabled", enabled).Msg("Policy state changed")

	return nil
}

// Filter returns the violations at or above min.
func (r *Result) Filter(min Severity) []Violation {
	return slices.DeleteFunc(slices.Clone(r.Violations), func(v Violation) bool {
		return !v.Severity.AtLeast(min)
	})
}

package listener

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Filter decides from the event type and subject whether a notification
// triggers a synchronization.
type Filter struct {
	prg cel.Program
}

// NewFilter compiles a boolean CEL expression over the variable event, a
// map with keys "type" and "subject". An empty expression accepts
// everything.
func NewFilter(expr string) (*Filter, error) {
	if expr == "" {
		return &Filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("event", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid listener filter: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("listener filter must return bool, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("invalid listener filter: %w", err)
	}
	return &Filter{prg: prg}, nil
}

// Match evaluates the filter.
func (f *Filter) Match(eventType, subject string) (bool, error) {
	if f.prg == nil {
		return true, nil
	}
	out, _, err := f.prg.Eval(map[string]any{
		"event": map[string]string{
			"type":    eventType,
			"subject": subject,
		},
	})
	if err != nil {
		return false, fmt.Errorf("listener filter evaluation: %w", err)
	}
	match, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("listener filter returned %T", out.Value())
	}
	return match, nil
}

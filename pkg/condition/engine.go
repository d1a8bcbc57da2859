package condition

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/formcraft/backend/pkg/utils"
)

// Engine evaluates display-condition and title-template expressions against
// a row's sub-field values. Expressions are authored per sub-field
// (`conditional_logic`) or per composite field (`title_template`); the env
// is the row's value map keyed by sub-field name.
type Engine struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewEngine creates a new condition engine with an empty compile cache.
func NewEngine() *Engine {
	return &Engine{cache: make(map[string]*vm.Program)}
}

// Visible evaluates a display condition. An empty condition is always
// visible. A failing condition hides nothing: resolution errors degrade by
// omission of the restriction, not of the field.
func (e *Engine) Visible(logic string, env map[string]interface{}) (bool, error) {
	if strings.TrimSpace(logic) == "" {
		return true, nil
	}
	out, err := e.Eval(logic, env)
	if err != nil {
		return true, err
	}
	return utils.ToBool(out), nil
}

// Eval compiles (with caching) and runs an expression against the env.
func (e *Engine) Eval(expression string, env map[string]interface{}) (interface{}, error) {
	program, err := e.compile(expression)
	if err != nil {
		return nil, err
	}
	if env == nil {
		env = map[string]interface{}{}
	}
	return expr.Run(program, env)
}

// EvalString is Eval with the result coerced to a display string.
func (e *Engine) EvalString(expression string, env map[string]interface{}) (string, error) {
	out, err := e.Eval(expression, env)
	if err != nil {
		return "", err
	}
	return utils.ToString(out), nil
}

// Validate checks an expression's syntax without running it.
func (e *Engine) Validate(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return nil
	}
	if _, err := e.compile(expression); err != nil {
		return fmt.Errorf("invalid expression: %w", err)
	}
	return nil
}

func (e *Engine) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	// Untyped compile: row value maps carry arbitrary sub-field names, so
	// the env cannot be declared ahead of time.
	program, err := expr.Compile(expression)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = program
	e.mu.Unlock()
	return program, nil
}

package table

import (
	"fmt"

	"github.com/robertkrimen/otto"
)

// scripter evaluates column scripts. The vm is created on first use and
// reused for the rest of the table.
type scripter struct {
	vm      *otto.Otto
	scripts map[string]*otto.Script
}

func newScripter() *scripter {
	return &scripter{}
}

func (s *scripter) run(src string, value string) (string, error) {
	if s.vm == nil {
		s.vm = otto.New()
		s.scripts = make(map[string]*otto.Script)
	}

	script, ok := s.scripts[src]
	if !ok {
		var err error
		if script, err = s.vm.Compile("", src); err != nil {
			return "", fmt.Errorf("compile script failed: %w", err)
		}
		s.scripts[src] = script
	}

	if err := s.vm.Set("value", value); err != nil {
		return "", err
	}

	v, err := s.vm.Run(script)
	if err != nil {
		return "", fmt.Errorf("run script failed: %w", err)
	}

	if v.IsUndefined() || v.IsNull() {
		return "", errCellMissing
	}

	return v.ToString()
}

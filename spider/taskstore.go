package spider

import "sort"

// TaskStore holds the preset tasks, keyed by name.
var TaskStore = &taskStore{
	Hash: map[string]*Task{},
}

type taskStore struct {
	Hash map[string]*Task
}

func (c *taskStore) Add(task *Task) {
	c.Hash[task.Name] = task
}

// Get returns a copy of the preset so callers can set run options on it freely.
func (c *taskStore) Get(name string) (*Task, bool) {
	t, ok := c.Hash[name]
	if !ok {
		return nil, false
	}

	cp := *t

	return &cp, true
}

func (c *taskStore) Names() []string {
	names := make([]string, 0, len(c.Hash))
	for name := range c.Hash {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

package spider

import (
	"github.com/dreamerjackson/statscraper/table"
	"go.uber.org/zap"
)

// DataRepository persists the result set of a task. Save is called once per run.
type DataRepository interface {
	Save(name string, t *table.Table) error
}

// EmptyDataRepository drops results, only logging their size.
type EmptyDataRepository struct {
	Logger *zap.Logger
}

func (e *EmptyDataRepository) Save(name string, t *table.Table) error {
	if e.Logger != nil {
		e.Logger.Info("drop result", zap.String("task", name), zap.Int("rows", t.Len()))
	}

	return nil
}

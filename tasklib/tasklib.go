package tasklib

import (
	"github.com/dreamerjackson/statscraper/spider"
	"github.com/dreamerjackson/statscraper/tasklib/nhl"
)

func init() {
	spider.TaskStore.Add(nhl.PlayersTask)
	spider.TaskStore.Add(nhl.GamesTask)
}

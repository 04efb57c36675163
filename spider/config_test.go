package spider

import (
	"context"
	"testing"
	"time"

	"github.com/dreamerjackson/statscraper/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func adHocConfig() TaskConfig {
	return TaskConfig{
		Name:     "draft",
		URL:      "http://stats.test/players",
		WaitTime: "1s",
		Table: &TableConfig{
			Selector: "#players",
			SkipRows: 1,
			Columns: []ColumnConfig{
				{
					Index: 0,
					Split: &SplitConfig{
						Pattern:     `^\((?P<country>[A-Z]{3})\)\s*(?P<name>.+)$`,
						Passthrough: "Name",
						Fields: []SplitFieldConfig{
							{Key: "Name", Group: "name"},
							{Key: "Country", Group: "country", Default: "Unknown"},
						},
					},
				},
				{Key: "BirthDate", Index: 1},
				{Key: "Years", Index: 2},
			},
		},
	}
}

func TestParseTaskConfig(t *testing.T) {
	static := &pageFetch{pages: map[string]string{"http://stats.test/players": playersPage}}
	s := &memStorage{}

	tasks, err := ParseTaskConfig(zap.NewNop(), Fetchers{Static: static}, s, []TaskConfig{adHocConfig()})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	assert.Equal(t, "draft", task.Name)
	assert.Equal(t, time.Second, task.WaitTime)
	assert.Equal(t, []string{"Name", "Country", "BirthDate", "Years"}, task.Listing.Header())

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, [][]string{{"Smith", "CAN", "1990-01-01", "2010-2020"}}, s.saved["draft"].Records())
}

func TestParseTaskConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TaskConfig)
	}{
		{name: "no name", modify: func(c *TaskConfig) { c.Name = "" }},
		{name: "no table", modify: func(c *TaskConfig) { c.Table = nil }},
		{name: "bad wait time", modify: func(c *TaskConfig) { c.WaitTime = "soon" }},
		{name: "bad split pattern", modify: func(c *TaskConfig) { c.Table.Columns[0].Split.Pattern = "(" }},
		{name: "bad href pattern", modify: func(c *TaskConfig) { c.Table.Columns[1].HrefPattern = "[" }},
		{name: "render without browser", modify: func(c *TaskConfig) { c.Render = true }},
		{name: "no url", modify: func(c *TaskConfig) { c.URL = "" }},
		{name: "bad limit", modify: func(c *TaskConfig) { c.Limits = []LimitConfig{{EventCount: 0, EventDur: 60}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := adHocConfig()
			tt.modify(&cfg)
			_, err := ParseTaskConfig(zap.NewNop(), Fetchers{Static: &pageFetch{}}, &memStorage{}, []TaskConfig{cfg})
			assert.Error(t, err)
		})
	}
}

func TestParseTaskConfig_Preset(t *testing.T) {
	preset := gamesTask(nil, nil)
	preset.Name = "test_games_preset"
	preset.Render = true
	TaskStore.Add(preset)
	defer delete(TaskStore.Hash, preset.Name)

	cfgs := []TaskConfig{{Name: preset.Name, URL: "http://stats.test/2023.html", WaitTime: "2s"}}
	assert.True(t, NeedsRender(cfgs))

	render := &pageFetch{}
	tasks, err := ParseTaskConfig(zap.NewNop(), Fetchers{Static: &pageFetch{}, Render: render}, &memStorage{}, cfgs)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	assert.Equal(t, "http://stats.test/2023.html", task.URL)
	assert.Equal(t, 2*time.Second, task.WaitTime)
	assert.Same(t, render, task.Fetcher)
	assert.Equal(t, []string{"Date", "Team", "Player", "G"}, task.Detail.Header())

	// the preset itself is left alone
	p, ok := TaskStore.Get(preset.Name)
	require.True(t, ok)
	assert.Equal(t, "http://stats.test/schedule.html", p.URL)
}

func TestNeedsRender(t *testing.T) {
	assert.False(t, NeedsRender([]TaskConfig{adHocConfig()}))

	cfg := adHocConfig()
	cfg.Render = true
	assert.True(t, NeedsRender([]TaskConfig{cfg}))
}

func TestParseTaskConfig_Limits(t *testing.T) {
	cfg := adHocConfig()
	cfg.Limits = []LimitConfig{
		{EventCount: 10, EventDur: 60, Bucket: 10},
		{EventCount: 1, EventDur: 3},
	}

	tasks, err := ParseTaskConfig(zap.NewNop(), Fetchers{Static: &pageFetch{}}, &memStorage{}, []TaskConfig{cfg})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	multi, ok := tasks[0].Limit.(*limiter.MultiLimiter)
	require.True(t, ok)
	// 10 pages a minute is stricter than the 1s wait and 1 page per 3s
	assert.Equal(t, limiter.Per(10, time.Minute), multi.Limit())

	// without limits only the fixed wait applies
	tasks, err = ParseTaskConfig(zap.NewNop(), Fetchers{Static: &pageFetch{}}, &memStorage{}, []TaskConfig{adHocConfig()})
	require.NoError(t, err)
	assert.Equal(t, rate.Every(time.Second), tasks[0].Limit.Limit())
}

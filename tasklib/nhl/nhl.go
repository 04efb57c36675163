package nhl

import (
	"regexp"
	"time"

	"github.com/dreamerjackson/statscraper/spider"
	"github.com/dreamerjackson/statscraper/table"
)

const site = "https://www.hockey-reference.com"

// 球队代码, e.g. /teams/TBL/2024.html
var teamRe = regexp.MustCompile(`/teams/([A-Z]{3})/`)

var PlayersTask = spider.NewTask(
	table.Spec{
		Selector:  "#stats",
		SkipRows:  1,
		SkipClass: "thead",
		Columns: []table.Column{
			{Stat: "player", Split: table.CountrySplit("Name", "Country")},
			{Key: "BirthDate", Stat: "birth_date", Optional: true},
			{Key: "Years", Stat: "years"},
		},
	},
	nil,
	spider.WithName("nhl_players"),
	spider.WithURL(site+"/friv/birthplaces.cgi"),
	spider.WithWaitTime(3*time.Second),
)

var GamesTask = spider.NewTask(
	table.Spec{
		Selector:  "#games",
		SkipRows:  1,
		SkipClass: "thead",
		Columns: []table.Column{
			{Key: "Date", Stat: "date_game"},
			{Key: "Link", Stat: "date_game", Href: true},
			{Key: "Visitor", Stat: "visitor_team_name", HrefPattern: teamRe},
			{Key: "Home", Stat: "home_team_name", HrefPattern: teamRe},
		},
	},
	&spider.Detail{
		LinkColumn: "Link",
		BaseURL:    site,
		Keys:       []string{"Visitor", "Home"},
		KeyName:    "Team",
		Carry:      []string{"Date"},
		Spec: table.Spec{
			Selector:  "#{key}_skaters",
			SkipRows:  2,
			SkipClass: "thead",
			Uncomment: true,
			Columns: []table.Column{
				{Key: "Player", Stat: "player"},
				{Key: "G", Stat: "goals"},
				{Key: "A", Stat: "assists"},
				{Key: "PTS", Stat: "points"},
				{Key: "PlusMinus", Stat: "plus_minus", Optional: true},
				{Key: "PIM", Stat: "pen_min"},
				{Key: "SOG", Stat: "shots", Optional: true},
				{Key: "TOI", Stat: "time_on_ice", Optional: true},
			},
		},
	},
	spider.WithName("nhl_games"),
	spider.WithURL(site+"/leagues/NHL_2024_games.html"),
	spider.WithWaitTime(3*time.Second),
)

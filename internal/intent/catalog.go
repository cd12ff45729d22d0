package intent

// Catalog of sports, teams, and report sections the service supports. This
// mirrors the report generator's config so the bot never offers something the
// reports cannot render.

var NBATeams = []string{
	"Atlanta Hawks", "Boston Celtics", "Brooklyn Nets", "Charlotte Hornets",
	"Chicago Bulls", "Cleveland Cavaliers", "Dallas Mavericks", "Denver Nuggets",
	"Detroit Pistons", "Golden State Warriors", "Houston Rockets", "Indiana Pacers",
	"Los Angeles Clippers", "Los Angeles Lakers", "Memphis Grizzlies", "Miami Heat",
	"Milwaukee Bucks", "Minnesota Timberwolves", "New Orleans Pelicans", "New York Knicks",
	"Oklahoma City Thunder", "Orlando Magic", "Philadelphia 76ers", "Phoenix Suns",
	"Portland Trail Blazers", "Sacramento Kings", "San Antonio Spurs", "Toronto Raptors",
	"Utah Jazz", "Washington Wizards",
}

var NBASectionLabels = map[string]string{
	"scores":             "Yesterday's Scores",
	"team_focus":         "Team Box Score",
	"top_scorers":        "Top Scorers",
	"standings":          "Standings",
	"stat_leaders":       "Stat Leaders",
	"todays_games":       "Today's Games",
	"three_point_leader": "3-Point Leader",
}

var SoccerLeagues = []string{
	"Premier League", "La Liga", "Serie A", "Ligue 1", "Bundesliga", "FA Cup",
}

var SoccerSectionLabels = map[string]string{
	"results":       "Yesterday's Results",
	"today_matches": "Today's Fixtures",
	"standings":     "Standings",
}

var MLSTeams = []string{
	"Inter Miami", "LAFC", "LA Galaxy", "Atlanta United", "Austin FC",
	"Charlotte FC", "Chicago Fire", "Cincinnati", "Colorado Rapids",
	"Columbus Crew", "D.C. United", "FC Dallas", "Houston Dynamo",
	"Minnesota United", "Montreal", "Nashville SC", "New England Revolution",
	"New York City FC", "New York Red Bulls", "Orlando City",
	"Philadelphia Union", "Portland Timbers", "Real Salt Lake",
	"San Jose Earthquakes", "Seattle Sounders", "Sporting KC",
	"St. Louis City", "Toronto FC", "Vancouver Whitecaps",
}

var ColorThemes = []string{"blue", "green", "red", "purple", "gold", "navy"}

var (
	DefaultNBASections         = []string{"scores", "top_scorers", "standings", "todays_games"}
	DefaultNBASectionsWithTeam = []string{"scores", "team_focus", "top_scorers", "standings", "todays_games"}
	DefaultSoccerSections      = []string{"results", "standings"}
	DefaultMLSSections         = []string{"results", "team_focus"}
)

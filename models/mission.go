package models

// MissionMetric is the ledger counter a mission threshold is checked against
type MissionMetric string

const (
	MetricWins      MissionMetric = "wins"
	MetricReferrals MissionMetric = "referrals"
	MetricGames     MissionMetric = "games"
)

// Mission is a static catalog entry; per-user state is only the claimed
// set on the ledger.
type Mission struct {
	ID        string
	Title     string
	Metric    MissionMetric
	Threshold int
	Reward    int // tickets
}

// Progress returns the user's current value for the mission metric.
func (m Mission) Progress(u *UserLedger) int {
	switch m.Metric {
	case MetricWins:
		return u.Wins
	case MetricReferrals:
		return u.ReferralCount
	case MetricGames:
		return u.TotalGames
	}
	return 0
}

// DefaultMissions is the fixed mission catalog.
var DefaultMissions = []Mission{
	{ID: "wins_10", Title: "10 Wins", Metric: MetricWins, Threshold: 10, Reward: 2},
	{ID: "referrals_5", Title: "5 Referrals", Metric: MetricReferrals, Threshold: 5, Reward: 2},
	{ID: "wins_15", Title: "15 Wins", Metric: MetricWins, Threshold: 15, Reward: 3},
	{ID: "referrals_10", Title: "10 Referrals", Metric: MetricReferrals, Threshold: 10, Reward: 3},
	{ID: "games_100", Title: "100 Games", Metric: MetricGames, Threshold: 100, Reward: 5},
	{ID: "wins_25", Title: "25 Wins", Metric: MetricWins, Threshold: 25, Reward: 5},
	{ID: "referrals_20", Title: "20 Referrals", Metric: MetricReferrals, Threshold: 20, Reward: 5},
	{ID: "wins_100", Title: "100 Wins", Metric: MetricWins, Threshold: 100, Reward: 10},
	{ID: "referrals_100", Title: "100 Referrals", Metric: MetricReferrals, Threshold: 100, Reward: 15},
}

// MissionByID looks up a catalog entry; ok is false for unknown ids.
func MissionByID(id string) (Mission, bool) {
	for _, m := range DefaultMissions {
		if m.ID == id {
			return m, true
		}
	}
	return Mission{}, false
}

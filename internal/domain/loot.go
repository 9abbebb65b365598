package domain

// Loot run outcome messages shared between the pipeline and the
// orchestrator's pacing decision.
const (
	MessageEmptyInventories = "empty inventories"
)

// LootOutcome is the immutable result of one account's attempt.
type LootOutcome struct {
	Login     string
	Success   bool
	Message   string
	ItemCount int
}

// WebSession is an immutable snapshot of a live authenticated session,
// returned by the session manager after a successful probe, renewal or
// login.
type WebSession struct {
	SteamID     SteamID64
	SessionID   string
	AccessToken string
}

func (s WebSession) Established() bool {
	return s.SteamID != 0 && s.SessionID != "" && s.AccessToken != ""
}

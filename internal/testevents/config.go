// Package testevents generates synthetic tournament sessions as host event
// streams and checks ranked rounds for consistency.
package testevents

// Config holds configuration for a generated session.
type Config struct {
	Maps        int     // Number of finished maps in the session
	Players     int     // Racers on the server
	NoTimeRatio float64 // Share of racers without a time on a map
	TieRatio    float64 // Share of finishers that copy the previous time
	Seed        uint64  // Generator seed; zero picks a random one
	Section     string  // Scores section that ends a map
}

// Defaults for a generated session.
const (
	DefaultMaps        = 5
	DefaultPlayers     = 12
	DefaultNoTimeRatio = 0.15
	DefaultTieRatio    = 0.1
	DefaultSection     = "EndMap"
)

// Stats summarizes a generated session.
type Stats struct {
	Events    int
	Maps      int
	Finishers int
	NoTime    int
	Ties      int
}

func (c Config) withDefaults() Config {
	if c.Maps <= 0 {
		c.Maps = DefaultMaps
	}
	if c.Players < 0 {
		c.Players = DefaultPlayers
	}
	if c.NoTimeRatio < 0 || c.NoTimeRatio > 1 {
		c.NoTimeRatio = DefaultNoTimeRatio
	}
	if c.TieRatio < 0 || c.TieRatio > 1 {
		c.TieRatio = DefaultTieRatio
	}
	if c.Section == "" {
		c.Section = DefaultSection
	}
	return c
}

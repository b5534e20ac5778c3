package service

// Chat texts. Each is sent behind the configured prefix.
const (
	DefaultPrefix = "$o$20atBG $fff- "

	msgStart     = "BIGGAMER tournament tracking will begin after map resets. $20aGLHF!$z"
	msgStop      = "Tournament will end at the conclusion of this map.$z"
	msgConcluded = "Tournament tracking concluded. Go get a nice Sunday morning cup of tea!$z"
	msgWinner    = "Congratulations to $z%s$fff! $i%s$z"
	msgNoWinner  = "Congratulations to... wait, nobody completed the map? Pff.$fff"
	msgSaved     = "Map scores saved successfully.$z"
	msgSaveError = "$f00An error occurred saving the match results.$z"
)

// DefaultCongrats are picked at random to congratulate a map winner.
var DefaultCongrats = []string{
	"Maximum BIGGAMER points for you!",
	"Your Sunday morning display of speed impresses us.",
	"Seriously fast stuff.",
	"And you managed it without throwing your keyboard across the room.",
}

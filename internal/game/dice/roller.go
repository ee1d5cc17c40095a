package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling. Debug
// rolls are the deterministic substitution used by debug-mode rooms: the
// die's maximum for offense, 1 for defense.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Offense rolls the offense die for kind. In debug mode the roll is the die
// size instead of a random value.
//
// Postcondition: 1 <= result <= kind.OffenseSides().
func (r *Roller) Offense(kind Kind, debug bool) int {
	sides := kind.OffenseSides()
	value := sides
	if !debug {
		value = Roll(sides, r.src)
	}
	r.logger.Debug("offense roll",
		zap.String("kind", string(kind)),
		zap.Int("sides", sides),
		zap.Int("value", value),
		zap.Bool("debug", debug),
	)
	return value
}

// Defense rolls the defense die for kind. In debug mode the roll is 1
// instead of a random value.
//
// Postcondition: 1 <= result <= kind.DefenseSides().
func (r *Roller) Defense(kind Kind, debug bool) int {
	sides := kind.DefenseSides()
	value := 1
	if !debug {
		value = Roll(sides, r.src)
	}
	r.logger.Debug("defense roll",
		zap.String("kind", string(kind)),
		zap.Int("sides", sides),
		zap.Int("value", value),
		zap.Bool("debug", debug),
	)
	return value
}

// Intn exposes the underlying source so a single Roller can serve as the
// process-wide randomness provider.
func (r *Roller) Intn(n int) int { return r.src.Intn(n) }

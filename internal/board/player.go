package board

import "fmt"

// Player identifies a side, and is also the content of a board cell.
// The zero value NoPlayer marks an empty cell.
type Player uint8

const (
	NoPlayer Player = iota
	PlayerA
	PlayerB
)

// PiecesPerPlayer is the number of pieces each side places.
const PiecesPerPlayer = 12

// Other returns the opponent. NoPlayer maps to itself.
func (p Player) Other() Player {
	switch p {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	default:
		return NoPlayer
	}
}

// IsValid reports whether p is one of the two sides.
func (p Player) IsValid() bool {
	return p == PlayerA || p == PlayerB
}

// String returns "A", "B" or "-".
func (p Player) String() string {
	switch p {
	case PlayerA:
		return "A"
	case PlayerB:
		return "B"
	default:
		return "-"
	}
}

// ParsePlayer parses "A" or "B".
func ParsePlayer(s string) (Player, error) {
	switch s {
	case "A", "a":
		return PlayerA, nil
	case "B", "b":
		return PlayerB, nil
	}
	return NoPlayer, fmt.Errorf("invalid player %q", s)
}

// Phase is the stage of the game. Exactly one is active at a time.
type Phase uint8

const (
	Placement Phase = iota
	Movement
	StuckRemoval
	GameOver
	numPhases
)

var phaseNames = [numPhases]string{"PLACEMENT", "MOVEMENT", "STUCK_REMOVAL", "GAME_OVER"}

// String returns the wire name of the phase.
func (ph Phase) String() string {
	if ph >= numPhases {
		return "UNKNOWN"
	}
	return phaseNames[ph]
}

// ParsePhase parses a wire phase name.
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), nil
		}
	}
	return Placement, fmt.Errorf("invalid phase %q", s)
}

// Package engine implements the Seega AI: transposition table, negamax
// search with quiescence and the static evaluator.
package engine

import (
	"github.com/hailam/seega/internal/board"
)

// Score bounds. Win scores are WinScore plus the remaining depth, so faster
// wins score higher and slower losses are preferred.
const (
	WinScore = 1000000
	Infinity = 2 * WinScore
)

// Evaluation constants
const (
	MaterialValue  = 2000 // per piece of difference
	StuckAdvantage = 2500 // side to act with no move in placement
)

// Placement vulnerability: an own piece with an enemy on one side and an
// empty cell on the other. The side that moves second after placement
// cannot react in time, so it is punished harder.
const (
	vulnerableAttacker = 150
	vulnerableDefender = 900
)

// Movement threats: pieces that can be flanked on the next step.
const (
	ownAtRisk   = -1600
	enemyAtRisk = 1200
)

// Positional weights
const (
	mobilityWeight     = 10 // per empty neighbor of difference
	proximityWeight    = 12 // per step of (maxDistance - nearest enemy)
	quadrantOccupied   = 100
	quadrantCrowded    = -150 // per piece beyond quadrantCapacity
	quadrantCapacity   = 5
	centerBonus        = 60
	contactBonus       = 5
	maxDistance        = 2 * (board.Size - 1)
	mopUpPieces        = 3 // opponent pieces at or below which proximity is tripled
	endgamePieces      = 10
	endgameMobilityMul = 2
)

// Opening-kill pattern around the center: an own piece two cells from the
// center with an enemy piece between. Once the center clears the leader can
// step in and flank that enemy on the first movement move.
const (
	openingKillLeader   = 1200
	openingKillFollower = 120
	openingKillLostLead = -250
	openingKillLostFoll = -1600
)

// Evaluate returns the static evaluation of b from p's perspective, p being
// the side to act in phase ph at ply moveIndex.
func Evaluate(b *board.Board, p board.Player, ph board.Phase, moveIndex int) int {
	op := p.Other()
	placing := ph == board.Placement
	leader := placing && board.MovementLeader(p, moveIndex) == p

	var (
		score, danger    int
		myMob, opMob     int
		contacts         int
		quadrants        [4]int
		mine, theirs     [board.NumSquares]board.Square
		myCount, opCount int
	)

	for sq := board.Square(0); sq < board.NumSquares; sq++ {
		switch b.At(sq) {
		case p:
			mine[myCount] = sq
			myCount++
			quadrants[quadrant(sq)]++
			if placing {
				v := b.Vulnerability(sq, op)
				if leader {
					score -= v * vulnerableAttacker
				} else {
					score -= v * vulnerableDefender
				}
				continue
			}
			myMob += b.EmptyNeighbors(sq)
			if b.AtRisk(sq, p) {
				danger += ownAtRisk
			}
			if sq == board.Center {
				score += centerBonus
			}
			for _, n := range board.Neighbors(sq) {
				if b.At(n) == op {
					contacts++
				}
			}
		case op:
			theirs[opCount] = sq
			opCount++
			if placing {
				continue
			}
			opMob += b.EmptyNeighbors(sq)
			if b.AtRisk(sq, op) {
				danger += enemyAtRisk
			}
		}
	}

	if placing {
		score += openingKillScore(b, p, leader)
	} else {
		mob := (myMob - opMob) * mobilityWeight
		if myCount+opCount <= endgamePieces {
			mob *= endgameMobilityMul
		}
		score += mob
		score += proximityScore(mine[:myCount], theirs[:opCount])
		score += quadrantScore(&quadrants)
		score += contacts * contactBonus
	}

	return score + danger + (myCount-opCount)*MaterialValue
}

// quadrant maps a square to one of four quadrants; the middle row and
// column belong to the lower-index side.
func quadrant(sq board.Square) int {
	q := 0
	if sq.Row() > board.CenterRow {
		q += 2
	}
	if sq.Col() > board.CenterCol {
		q++
	}
	return q
}

func quadrantScore(q *[4]int) int {
	s := 0
	for _, n := range q {
		if n > 0 {
			s += quadrantOccupied
		}
		if n > quadrantCapacity {
			s += (n - quadrantCapacity) * quadrantCrowded
		}
	}
	return s
}

// proximityScore pulls own pieces towards the nearest enemy, harder when
// the opponent is almost wiped out.
func proximityScore(mine, theirs []board.Square) int {
	if len(theirs) == 0 {
		return 0
	}
	total := 0
	for _, m := range mine {
		nearest := maxDistance
		for _, t := range theirs {
			if d := board.Distance(m, t); d < nearest {
				nearest = d
			}
		}
		total += (maxDistance - nearest) * proximityWeight
	}
	if len(theirs) <= mopUpPieces {
		total *= 3
	}
	return total
}

func openingKillScore(b *board.Board, p board.Player, leader bool) int {
	op := p.Other()
	bonus := 0
	for d := 0; d < 4; d++ {
		adj, far := board.Ray(board.Center, d)
		switch {
		case b.At(far) == p && b.At(adj) == op:
			if leader {
				bonus += openingKillLeader
			} else {
				bonus += openingKillFollower
			}
		case b.At(far) == op && b.At(adj) == p:
			if leader {
				bonus += openingKillLostLead
			} else {
				bonus += openingKillLostFoll
			}
		}
	}
	return bonus
}

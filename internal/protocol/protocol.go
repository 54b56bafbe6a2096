// Package protocol implements a line-oriented text protocol for driving the
// Seega engine from scripts and terminals.
//
// Commands:
//
//	seega                              identify and list options
//	isready                            answer readyok
//	newgame                            start a new game with a fresh id
//	position startpos [moves ...]      set up the opening
//	position layout <layout> <player> <phase> <ply> [moves ...]
//	play <move> ...                    apply moves to the current game
//	undo                               take back the last move
//	go [depth N] [difficulty D] [movetime MS] [nodes N]
//	stop                               abort the running search
//	legal                              list the legal moves
//	perft N                            count the leaves N plies deep
//	d                                  print the current game
//	setoption name <name> value <value>
//	quit
package protocol

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/hailam/seega/internal/board"
	"github.com/hailam/seega/internal/engine"
)

// Protocol holds one text session: the current game and the engine
// answering for it.
type Protocol struct {
	engine     *engine.Engine
	limits     engine.Limits
	difficulty engine.Difficulty
	log        zerolog.Logger

	state   board.State
	history []board.State
	gameID  string

	outMu sync.Mutex
	out   io.Writer

	// Search state
	cancel     context.CancelFunc
	searchDone chan struct{}
}

// New creates a protocol handler writing to out. It takes over the
// engine's OnInfo callback.
func New(eng *engine.Engine, limits engine.Limits, out io.Writer, log zerolog.Logger) *Protocol {
	p := &Protocol{
		engine:     eng,
		limits:     limits,
		difficulty: engine.Medium,
		log:        log,
		out:        out,
	}
	eng.SetLimits(limits)
	eng.OnInfo = p.sendInfo
	p.handleNewGame()
	return p
}

// State returns the current game.
func (p *Protocol) State() board.State {
	return p.state
}

// Run reads commands from in until quit, EOF or ctx is done. At EOF a
// running search is allowed to finish and print its move.
func (p *Protocol) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			p.handleStop()
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		if cmd == "stop" {
			p.handleStop()
			continue
		}
		// Everything else acts on the position a running search is using.
		p.wait()

		switch cmd {
		case "seega":
			p.handleHello()
		case "isready":
			p.println("readyok")
		case "newgame":
			p.handleNewGame()
		case "position":
			p.handlePosition(args)
		case "play":
			p.handlePlay(args)
		case "undo":
			p.handleUndo()
		case "go":
			p.handleGo(ctx, args)
		case "legal":
			p.handleLegal()
		case "perft":
			p.handlePerft(args)
		case "d":
			p.handleDisplay()
		case "setoption":
			p.handleSetOption(args)
		case "quit":
			p.handleStop()
			return nil
		default:
			p.errorf("unknown command %q", cmd)
		}
	}
	p.wait()
	return scanner.Err()
}

func (p *Protocol) printf(format string, args ...any) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *Protocol) println(s string) {
	p.printf("%s\n", s)
}

func (p *Protocol) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.log.Debug().Str("game", p.gameID).Msg(msg)
	p.printf("info string error: %s\n", msg)
}

func (p *Protocol) handleHello() {
	p.println("id name Seega")
	p.println("option name Difficulty type spin default 4 min 1 max 10")
	p.println("option name MoveTime type spin default 0 min 0 max 600000")
	p.println("option name Nodes type spin default 0 min 0")
	p.println("option name Randomize type check default false")
	p.printf("option name TableBits type spin default %d min %d max %d\n",
		engine.DefaultTableBits, engine.MinTableBits, engine.MaxTableBits)
	p.println("seegaok")
}

func (p *Protocol) handleNewGame() {
	p.state = board.NewGame()
	p.history = nil
	p.gameID = hex.EncodeToString(frand.Bytes(8))
}

// handlePosition sets up a position.
// Formats:
//   - position startpos moves a1 e5
//   - position layout 5/5/5/5/5 A PLACEMENT 1 moves a1
func (p *Protocol) handlePosition(args []string) {
	if len(args) == 0 {
		p.errorf("position needs startpos or layout")
		return
	}

	var st board.State
	rest := args[1:]
	switch args[0] {
	case "startpos":
		st = board.NewGame()
	case "layout":
		if len(rest) < 4 {
			p.errorf("position layout needs <layout> <player> <phase> <ply>")
			return
		}
		var err error
		if st, err = parseState(rest[0], rest[1], rest[2], rest[3]); err != nil {
			p.errorf("%v", err)
			return
		}
		rest = rest[4:]
	default:
		p.errorf("unknown position type %q", args[0])
		return
	}

	var moves []string
	if len(rest) > 0 {
		if rest[0] != "moves" {
			p.errorf("expected moves, got %q", rest[0])
			return
		}
		moves = rest[1:]
	}

	// The position is only replaced once every move applied.
	history := make([]board.State, 0, len(moves))
	for _, s := range moves {
		next, err := applyNotation(st, s)
		if err != nil {
			p.errorf("%v", err)
			return
		}
		history = append(history, st)
		st = next
	}
	p.state = st
	p.history = history
}

func parseState(layout, player, phase, ply string) (board.State, error) {
	b, err := board.ParseLayout(layout)
	if err != nil {
		return board.State{}, err
	}
	pl, err := board.ParsePlayer(player)
	if err != nil {
		return board.State{}, err
	}
	ph, err := board.ParsePhase(strings.ToUpper(phase))
	if err != nil {
		return board.State{}, err
	}
	idx, err := strconv.Atoi(ply)
	if err != nil || idx < 1 {
		return board.State{}, fmt.Errorf("invalid ply %q", ply)
	}
	st := board.State{Board: b, Player: pl, Phase: ph, MoveIndex: idx}
	st.Normalize()
	return st, nil
}

func applyNotation(st board.State, s string) (board.State, error) {
	m, err := board.ParseMove(s)
	if err != nil {
		return st, err
	}
	res, err := board.ApplyMove(st, m)
	if err != nil {
		return st, fmt.Errorf("move %s: %w", s, err)
	}
	return res.State(), nil
}

func (p *Protocol) handlePlay(args []string) {
	for _, s := range args {
		m, err := board.ParseMove(s)
		if err != nil {
			p.errorf("%v", err)
			return
		}
		res, err := board.ApplyMove(p.state, m)
		if err != nil {
			p.errorf("move %s: %v", s, err)
			return
		}
		p.history = append(p.history, p.state)
		p.state = res.State()
		if len(res.Captured) > 0 {
			caps := make([]string, len(res.Captured))
			for i, sq := range res.Captured {
				caps[i] = sq.String()
			}
			p.printf("info string captured %s\n", strings.Join(caps, " "))
		}
		if res.GameOver {
			p.printf("info string game over winner %s\n", res.Winner)
			return
		}
	}
}

func (p *Protocol) handleUndo() {
	if len(p.history) == 0 {
		p.errorf("nothing to undo")
		return
	}
	p.state = p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
}

// goOptions holds parsed "go" command options.
type goOptions struct {
	depth      int
	difficulty engine.Difficulty
	limits     engine.Limits
}

func (p *Protocol) parseGoOptions(args []string) (goOptions, error) {
	opts := goOptions{difficulty: p.difficulty, limits: p.limits}
	for i := 0; i < len(args); i++ {
		if i+1 >= len(args) {
			return opts, fmt.Errorf("go %s needs a value", args[i])
		}
		key, val := args[i], args[i+1]
		i++
		switch key {
		case "depth":
			d, err := strconv.Atoi(val)
			if err != nil || d < 1 {
				return opts, fmt.Errorf("invalid depth %q", val)
			}
			opts.depth = d
		case "difficulty":
			d, err := engine.ParseDifficulty(val)
			if err != nil {
				return opts, err
			}
			opts.difficulty = d
		case "movetime":
			ms, err := strconv.Atoi(val)
			if err != nil || ms < 0 {
				return opts, fmt.Errorf("invalid movetime %q", val)
			}
			opts.limits.MoveTime = time.Duration(ms) * time.Millisecond
		case "nodes":
			n, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return opts, fmt.Errorf("invalid nodes %q", val)
			}
			opts.limits.Nodes = n
		default:
			return opts, fmt.Errorf("unknown go option %q", key)
		}
	}
	return opts, nil
}

// handleGo starts a search of the current position in the background.
func (p *Protocol) handleGo(ctx context.Context, args []string) {
	opts, err := p.parseGoOptions(args)
	if err != nil {
		p.errorf("%v", err)
		return
	}
	p.engine.SetLimits(opts.limits)

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.searchDone = make(chan struct{})
	st := p.state
	req := engine.Request{
		State:      st,
		Difficulty: opts.difficulty,
		GameID:     p.gameID,
		Depth:      opts.depth,
	}

	go func() {
		defer close(p.searchDone)
		defer cancel()

		res, err := p.engine.ComputeBestMove(ctx, req)
		if err != nil {
			p.errorf("%v", err)
			p.println("bestmove 0000")
			return
		}
		if res.Forced {
			p.printf("info string forced score %s\n", engine.ScoreToString(res.Score))
		}
		p.printf("bestmove %s\n", res.Move)
	}()
}

// sendInfo prints one completed iteration.
func (p *Protocol) sendInfo(info engine.SearchInfo) {
	parts := []string{fmt.Sprintf("depth %d", info.Depth)}

	switch {
	case info.Score >= engine.WinScore:
		parts = append(parts, "score win")
	case info.Score <= -engine.WinScore:
		parts = append(parts, "score loss")
	default:
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	// Print the PV only as far as it replays legally.
	if len(info.PV) > 0 {
		valid := make([]string, 0, len(info.PV))
		st := p.state
		for _, m := range info.PV {
			res, err := board.ApplyMove(st, m)
			if err != nil {
				break
			}
			valid = append(valid, m.String())
			if res.GameOver {
				break
			}
			st = res.State()
		}
		if len(valid) > 0 {
			parts = append(parts, "pv "+strings.Join(valid, " "))
		}
	}

	p.printf("info %s\n", strings.Join(parts, " "))
}

// wait blocks until the running search, if any, has printed its move.
func (p *Protocol) wait() {
	if p.searchDone != nil {
		<-p.searchDone
		p.searchDone = nil
		p.cancel = nil
	}
}

func (p *Protocol) handleStop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wait()
}

func (p *Protocol) handleLegal() {
	st := p.state
	st.Normalize()
	moves := st.Board.LegalMoves(st.Player, st.Phase, st.LastMove[board.PlayerA], st.LastMove[board.PlayerB])
	strs := make([]string, len(moves))
	for i, m := range moves {
		strs[i] = m.String()
	}
	p.printf("legal %s %d %s\n", st.Phase, len(moves), strings.Join(strs, " "))
}

func (p *Protocol) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 0 {
			p.errorf("invalid perft depth %q", args[0])
			return
		}
		depth = d
	}

	st := p.state
	start := time.Now()
	nodes := board.Perft(&st, depth)
	elapsed := time.Since(start)

	p.printf("Nodes: %d\n", nodes)
	p.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		p.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}

func (p *Protocol) handleDisplay() {
	st := p.state
	p.println(st.Board.String())
	p.printf("Layout: %s\n", st.Board.Layout())
	p.printf("Player: %s  Phase: %s  Ply: %d\n", st.Player, st.Phase, st.MoveIndex)
	p.printf("Pieces: A %d  B %d\n", st.Board.Count(board.PlayerA), st.Board.Count(board.PlayerB))
	p.printf("Hash: %016x\n", board.ComputeHash(&st.Board, st.Player, st.Phase))
	if st.Phase != board.GameOver && st.Player.IsValid() {
		p.printf("Eval: %s\n", engine.ScoreToString(p.engine.Evaluate(&st)))
	}
}

// handleSetOption processes "setoption name <name> value <value>".
func (p *Protocol) handleSetOption(args []string) {
	var name, value []string
	var dst *[]string
	for _, arg := range args {
		switch arg {
		case "name":
			dst = &name
		case "value":
			dst = &value
		default:
			if dst != nil {
				*dst = append(*dst, arg)
			}
		}
	}
	val := strings.Join(value, " ")

	switch strings.ToLower(strings.Join(name, " ")) {
	case "difficulty":
		d, err := engine.ParseDifficulty(val)
		if err != nil {
			p.errorf("%v", err)
			return
		}
		p.difficulty = d
	case "movetime":
		ms, err := strconv.Atoi(val)
		if err != nil || ms < 0 {
			p.errorf("invalid movetime %q", val)
			return
		}
		p.limits.MoveTime = time.Duration(ms) * time.Millisecond
	case "nodes":
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			p.errorf("invalid nodes %q", val)
			return
		}
		p.limits.Nodes = n
	case "randomize":
		p.engine.SetRandomize(strings.EqualFold(val, "true"))
	case "tablebits":
		bits, err := strconv.Atoi(val)
		if err != nil || bits < engine.MinTableBits || bits > engine.MaxTableBits {
			p.errorf("invalid table bits %q", val)
			return
		}
		p.engine.SetTableBits(bits)
	default:
		p.errorf("unknown option %q", strings.Join(name, " "))
	}
}

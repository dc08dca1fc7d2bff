// Package engineadapter talks to an external UCI chess engine subprocess and normalizes its
// analysis into plain centipawn scores. It is the only component that knows the UCI wire
// protocol; everything above it works with FEN strings, UCI move strings and Lines.
package engineadapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jkern100/chess-scout/pkg/board"
	"github.com/jkern100/chess-scout/pkg/board/fen"
	"github.com/seekerror/logw"
)

// MateScore is the centipawn magnitude assigned to a forced mate, reduced by the number of
// moves to mate (the n of a UCI "score mate n") so that a quicker mate always scores higher
// than a slower one.
const MateScore = 100000

// IllegalMovePenalty is the score handed back for a move that could not be analyzed, e.g.
// because it is illegal in the given position or the engine failed to respond in time.
const IllegalMovePenalty = -100

// Line is a single ranked analysis line for a position.
type Line struct {
	Rank  int // multipv rank, 1-based
	Move  string
	Score int // centipawns, from the perspective of the side to move
	Depth int
}

func (l Line) String() string {
	return fmt.Sprintf("#%v %v (%v/%vcp)", l.Rank, l.Move, l.Depth, l.Score)
}

// Options are engine adapter creation options.
type Options struct {
	// Threads is the number of search threads to configure on the engine. If zero, the
	// engine's own default is left untouched.
	Threads uint
	// HashMB is the transposition table size in MB. If zero, the engine's own default is
	// left untouched.
	HashMB uint
	// MultiPV is the number of ranked lines the engine should report per search.
	MultiPV uint
	// Timeout bounds how long a single "go" search is allowed to run before the adapter
	// gives up waiting for a bestmove.
	Timeout time.Duration
}

func (o Options) String() string {
	return fmt.Sprintf("{threads=%v, hash=%v, multipv=%v, timeout=%v}", o.Threads, o.HashMB, o.MultiPV, o.Timeout)
}

// Option is an engine adapter creation option.
type Option func(*Adapter)

// WithThreads configures the number of engine search threads.
func WithThreads(threads uint) Option {
	return func(a *Adapter) {
		a.opts.Threads = threads
	}
}

// WithHashMB configures the engine transposition table size, in MB.
func WithHashMB(mb uint) Option {
	return func(a *Adapter) {
		a.opts.HashMB = mb
	}
}

// WithMultiPV configures the number of ranked lines the engine reports per search.
func WithMultiPV(n uint) Option {
	return func(a *Adapter) {
		a.opts.MultiPV = n
	}
}

// WithTimeout bounds how long the adapter waits for a bestmove before giving up.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		a.opts.Timeout = d
	}
}

// Adapter is a client for a single external UCI engine subprocess. Safe for concurrent use;
// requests are serialized, since a UCI engine has a single position/search context.
type Adapter struct {
	path string
	opts Options

	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines <-chan string

	zt *board.ZobristTable
	mu sync.Mutex
}

// New spawns the engine at path and performs the UCI handshake (uci/uciok, options, isready).
func New(ctx context.Context, path string, opts ...Option) (*Adapter, error) {
	a := &Adapter{
		path: path,
		opts: Options{MultiPV: 1, Timeout: 10 * time.Second},
		zt:   board.NewZobristTable(0),
	}
	for _, fn := range opts {
		fn(a)
	}

	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting engine %v: %w", path, err)
	}

	a.cmd = cmd
	a.stdin = stdin
	a.lines = readEngineLines(ctx, stdout)

	if err := a.send(ctx, "uci"); err != nil {
		return nil, err
	}
	if _, err := a.await(ctx, func(l string) bool { return l == "uciok" }); err != nil {
		return nil, fmt.Errorf("uci handshake with %v: %w", path, err)
	}

	if a.opts.Threads > 0 {
		_ = a.send(ctx, fmt.Sprintf("setoption name Threads value %v", a.opts.Threads))
	}
	if a.opts.HashMB > 0 {
		_ = a.send(ctx, fmt.Sprintf("setoption name Hash value %v", a.opts.HashMB))
	}
	if a.opts.MultiPV > 0 {
		_ = a.send(ctx, fmt.Sprintf("setoption name MultiPV value %v", a.opts.MultiPV))
	}

	if err := a.isReady(ctx); err != nil {
		return nil, fmt.Errorf("uci readiness with %v: %w", path, err)
	}

	logw.Infof(ctx, "Initialized engine adapter: %v, options=%v", path, a.opts)
	return a, nil
}

// AnalyzePosition runs a fixed-depth search on the position in fenStr and returns the ranked
// lines the engine reported, in increasing multipv rank order (rank 1 is the engine's top
// choice). The returned score is from the perspective of the side to move in fenStr.
func (a *Adapter) AnalyzePosition(ctx context.Context, fenStr string, depth int) ([]Line, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logw.Infof(ctx, "Analyze %v, depth=%v, multipv=%v", fenStr, depth, a.opts.MultiPV)

	if err := a.send(ctx, "position fen "+fenStr); err != nil {
		return nil, err
	}
	if err := a.send(ctx, fmt.Sprintf("go depth %v", depth)); err != nil {
		return nil, err
	}

	lines, best, err := a.collect(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 && best != "" {
		lines = []Line{{Rank: 1, Move: best, Depth: depth}}
	}
	return lines, nil
}

// EvaluateMove returns the centipawn score of playing move in the position fenStr, from the
// perspective of the side to move in fenStr. It works by applying the move and analyzing the
// resulting position, then negating the engine's score, since the engine now reports from the
// opponent's perspective.
func (a *Adapter) EvaluateMove(ctx context.Context, fenStr, move string, depth int) (int, error) {
	next, err := a.applyMove(fenStr, move)
	if err != nil {
		return 0, err
	}

	lines, err := a.AnalyzePosition(ctx, next, depth)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, fmt.Errorf("no analysis returned for %v after %v", fenStr, move)
	}
	return -lines[0].Score, nil
}

// AnalyzeSingleMove is a best-effort variant of EvaluateMove for moves that are only candidates
// drawn from history, not from the engine's own top lines: an illegal or unanalyzable move is
// not an error, it is simply scored as a (small) blunder via IllegalMovePenalty.
func (a *Adapter) AnalyzeSingleMove(ctx context.Context, fenStr, move string, depth int) int {
	score, err := a.EvaluateMove(ctx, fenStr, move, depth)
	if err != nil {
		logw.Warningf(ctx, "AnalyzeSingleMove %v on %v failed, defaulting to %v: %v", move, fenStr, IllegalMovePenalty, err)
		return IllegalMovePenalty
	}
	return score
}

// IsReady blocks until the engine confirms it is idle and ready for the next command.
func (a *Adapter) IsReady(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.isReady(ctx)
}

// Close asks the engine to quit and waits for the subprocess to exit.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	logw.Infof(ctx, "Closing engine adapter: %v", a.path)

	_ = a.send(ctx, "quit")
	_ = a.stdin.Close()
	return a.cmd.Wait()
}

func (a *Adapter) isReady(ctx context.Context) error {
	if err := a.send(ctx, "isready"); err != nil {
		return err
	}
	_, err := a.await(ctx, func(l string) bool { return l == "readyok" })
	return err
}

// applyMove resolves move against the position in fenStr and returns the resulting FEN. The
// move must be at least pseudo-legal and must not leave the mover's own king in check.
func (a *Adapter) applyMove(fenStr, move string) (string, error) {
	pos, turn, noprogress, fullmoves, err := fen.Decode(fenStr)
	if err != nil {
		return "", fmt.Errorf("invalid position %q: %w", fenStr, err)
	}
	candidate, err := board.ParseMove(move)
	if err != nil {
		return "", fmt.Errorf("invalid move %q: %w", move, err)
	}

	var resolved board.Move
	var found bool
	for _, m := range pos.PseudoLegalMoves(turn) {
		if m.Equals(candidate) {
			resolved, found = m, true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("illegal move: %v", move)
	}

	b := board.NewBoard(a.zt, pos, turn, noprogress, fullmoves)
	if !b.PushMove(resolved) {
		return "", fmt.Errorf("illegal move: %v", move)
	}
	return fen.Encode(b.Position(), b.Turn(), b.NoProgress(), b.FullMoves()), nil
}

// collect reads "info"/"bestmove" lines until the search concludes, returning the ranked lines
// seen (keyed by multipv rank, keeping only the latest/deepest report per rank) and the final
// bestmove. Bounded by opts.Timeout.
func (a *Adapter) collect(ctx context.Context) ([]Line, string, error) {
	deadline := time.After(a.opts.Timeout)
	byRank := map[int]Line{}

	for {
		select {
		case line, ok := <-a.lines:
			if !ok {
				return nil, "", fmt.Errorf("engine closed stdout")
			}
			switch {
			case strings.HasPrefix(line, "info "):
				if l, ok := parseInfoLine(line); ok {
					byRank[l.Rank] = l
				}
			case strings.HasPrefix(line, "bestmove"):
				fields := strings.Fields(line)
				best := ""
				if len(fields) >= 2 {
					best = fields[1]
				}
				return sortedLines(byRank), best, nil
			}
		case <-deadline:
			return nil, "", fmt.Errorf("timed out waiting for bestmove")
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
}

func sortedLines(byRank map[int]Line) []Line {
	ret := make([]Line, 0, len(byRank))
	for _, l := range byRank {
		ret = append(ret, l)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Rank < ret[j].Rank })
	return ret
}

// parseInfoLine extracts the multipv rank, depth, score and best move of a single line from a
// UCI "info" string, e.g. "info depth 14 multipv 1 score cp 35 ... pv e2e4 e7e5".
func parseInfoLine(line string) (Line, bool) {
	l := Line{Rank: 1}

	fields := strings.Fields(line)
	for i, f := range fields {
		switch f {
		case "multipv":
			if i+1 < len(fields) {
				if v, err := strconv.Atoi(fields[i+1]); err == nil {
					l.Rank = v
				}
			}
		case "depth":
			if i+1 < len(fields) {
				if v, err := strconv.Atoi(fields[i+1]); err == nil {
					l.Depth = v
				}
			}
		case "score":
			if i+2 < len(fields) {
				v, err := strconv.Atoi(fields[i+2])
				if err != nil {
					continue
				}
				if fields[i+1] == "mate" {
					l.Score = mateToScore(v)
				} else {
					l.Score = v
				}
			}
		case "pv":
			if i+1 < len(fields) {
				l.Move = fields[i+1]
			}
		}
	}
	return l, l.Move != ""
}

// mateToScore folds a "mate in n" report into a single large-magnitude centipawn score: a
// quicker mate always outranks a slower one, and a mate against the side to move is negative.
func mateToScore(n int) int {
	if n >= 0 {
		return MateScore - n
	}
	return -MateScore - n
}

func (a *Adapter) send(ctx context.Context, line string) error {
	logw.Debugf(ctx, ">> %v", line)
	_, err := fmt.Fprintln(a.stdin, line)
	return err
}

func (a *Adapter) await(ctx context.Context, match func(string) bool) (string, error) {
	deadline := time.After(a.opts.Timeout)
	for {
		select {
		case line, ok := <-a.lines:
			if !ok {
				return "", fmt.Errorf("engine closed stdout")
			}
			if match(line) {
				return line, nil
			}
		case <-deadline:
			return "", fmt.Errorf("timed out waiting for engine response")
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func readEngineLines(ctx context.Context, r io.Reader) <-chan string {
	ret := make(chan string, 16)
	go func() {
		defer close(ret)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			logw.Debugf(ctx, "<< %v", scanner.Text())
			ret <- scanner.Text()
		}
	}()
	return ret
}

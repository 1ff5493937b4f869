package eval

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hoornstra/missmeester/internal/logger"
)

// errEvalTimeout marks a single position that exceeded the per-move deadline.
// Unlike pipe errors it does not mean the engine process is gone.
var errEvalTimeout = errors.New("engine evaluation timeout")

const (
	searchTimeout = 8 * time.Second
	stopTimeout   = 2 * time.Second
)

// Engine is a long-lived UCI engine session over stdin/stdout pipes. Output
// is read by a dedicated goroutine into lines so every wait carries a real
// deadline even when the process goes completely silent.
type Engine struct {
	path string
	log  *logger.Logger

	searchTimeout time.Duration
	stopTimeout   time.Duration

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   ioWriter
	stdout  *bufio.Reader
	lines   chan string
	readErr error
}

type ioWriter interface {
	Write([]byte) (int, error)
}

// NewEngine starts the engine binary at path and completes the UCI handshake.
// A failure here is fatal: there is no session to degrade to.
func NewEngine(path string) (*Engine, error) {
	log := logger.Default().WithPrefix("engine")

	if path == "" {
		path = "stockfish"
	}

	log.Info("starting engine: %s", path)
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Error("failed to create stdin pipe: %v", err)
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Error("failed to create stdout pipe: %v", err)
		return nil, err
	}

	engine := &Engine{
		path:          path,
		log:           log,
		searchTimeout: searchTimeout,
		stopTimeout:   stopTimeout,
		cmd:           cmd,
		stdin:         stdin,
		stdout:        bufio.NewReader(stdout),
		lines:         make(chan string, 64),
	}

	if err := cmd.Start(); err != nil {
		log.Error("failed to start engine: %v", err)
		return nil, err
	}
	go engine.readLoop()

	log.Debug("initializing UCI protocol")
	if err := engine.init(); err != nil {
		log.Error("failed to initialize UCI: %v", err)
		return nil, err
	}

	log.Info("engine ready")
	return engine, nil
}

func (e *Engine) init() error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if err := e.waitFor("uciok", 2*time.Second); err != nil {
		return err
	}
	if err := e.send("isready"); err != nil {
		return err
	}
	return e.waitFor("readyok", 2*time.Second)
}

// Close sends quit and waits for the process to exit. Safe to call once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return nil
	}

	e.log.Debug("closing engine")
	_ = e.sendLocked("quit")
	err := e.cmd.Wait()
	e.cmd = nil

	if err != nil {
		e.log.Debug("engine process exited: %v", err)
	} else {
		e.log.Debug("engine process exited cleanly")
	}

	return err
}

// EvaluateFEN runs a fixed-depth search on one position. Scores are
// normalized to white's perspective regardless of the side to move.
func (e *Engine) EvaluateFEN(ctx context.Context, fen string, depth int) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.log.WithField("depth", depth)

	if depth <= 0 {
		depth = 15
	}

	start := time.Now()
	log.Debug("evaluating position: %s", fen)

	if err := e.sendLocked("ucinewgame"); err != nil {
		log.Error("failed to send ucinewgame: %v", err)
		return Result{}, err
	}
	if err := e.sendLocked("position fen " + fen); err != nil {
		log.Error("failed to set position: %v", err)
		return Result{}, err
	}

	parts := strings.Fields(fen)
	isBlackToMove := len(parts) > 1 && parts[1] == "b"

	if err := e.sendLocked(fmt.Sprintf("go depth %d", depth)); err != nil {
		log.Error("failed to start search: %v", err)
		return Result{}, err
	}

	var best Result
	deadline := time.Now().Add(e.searchTimeout)
	for {
		line, err := e.readLine(ctx, deadline)
		if err != nil {
			if errors.Is(err, errEvalTimeout) {
				log.Warn("evaluation timed out after %v", e.searchTimeout)
				if derr := e.stopSearch(); derr != nil {
					log.Error("engine did not recover from timeout: %v", derr)
					return Result{}, derr
				}
				return Result{}, errEvalTimeout
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Warn("evaluation cancelled: %v", err)
			} else {
				log.Error("failed to read from engine: %v", err)
			}
			return Result{}, err
		}
		if strings.HasPrefix(line, "info") {
			if cp, ok := parseScore(line); ok {
				if isBlackToMove {
					cp = -cp
				}
				best.Score = CP(cp)
			}
		}
		if strings.HasPrefix(line, "bestmove") {
			fields := strings.Fields(line)
			if len(fields) >= 2 && fields[1] != "(none)" {
				best.BestMove = fields[1]
			}
			log.Debug("evaluation completed in %v: cp=%.0f, bestmove=%s",
				time.Since(start), best.Score.CP, best.BestMove)
			return best, nil
		}
	}
}

// parseScore extracts a centipawn value from a UCI info line, relative to the
// side to move. Mate scores map onto the centipawn scale as 10000 - 10*n so
// mate in 1 = 9990, mate in 2 = 9980, and a faster mate always outranks a
// slower one.
func parseScore(line string) (float64, bool) {
	parts := strings.Fields(line)
	for i := 0; i < len(parts); i++ {
		if parts[i] != "score" || i+2 >= len(parts) {
			continue
		}
		switch parts[i+1] {
		case "cp":
			if v, err := strconv.Atoi(parts[i+2]); err == nil {
				return float64(v), true
			}
		case "mate":
			if n, err := strconv.Atoi(parts[i+2]); err == nil {
				cp := 10000.0 - float64(abs(n))*10.0
				if n < 0 {
					cp = -cp
				}
				return cp, true
			}
		}
	}
	return 0, false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (e *Engine) send(cmd string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sendLocked(cmd)
}

func (e *Engine) sendLocked(cmd string) error {
	_, err := e.stdin.Write([]byte(cmd + "\n"))
	return err
}

// readLoop pumps engine output into lines until the pipe closes, so readers
// can always pair a channel receive with a deadline.
func (e *Engine) readLoop() {
	for {
		line, err := e.stdout.ReadString('\n')
		if err != nil {
			e.readErr = err
			close(e.lines)
			return
		}
		e.lines <- strings.TrimSpace(line)
	}
}

// readLine returns the next engine output line, or errEvalTimeout when the
// deadline passes first. A closed output pipe surfaces the read error.
func (e *Engine) readLine(ctx context.Context, deadline time.Time) (string, error) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case line, ok := <-e.lines:
		if !ok {
			if e.readErr != nil {
				return "", e.readErr
			}
			return "", errors.New("engine output closed")
		}
		return line, nil
	case <-timer.C:
		return "", errEvalTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// stopSearch aborts an in-flight search and drains its output through the
// closing bestmove, so the next evaluation never consumes a stale answer. An
// engine that stays silent after stop is wedged; the session cannot be reused
// and the error is fatal to the batch.
func (e *Engine) stopSearch() error {
	if err := e.sendLocked("stop"); err != nil {
		return err
	}
	deadline := time.Now().Add(e.stopTimeout)
	for {
		line, err := e.readLine(context.Background(), deadline)
		if err != nil {
			if errors.Is(err, errEvalTimeout) {
				return fmt.Errorf("engine unresponsive to stop after %v", e.stopTimeout)
			}
			return err
		}
		if strings.HasPrefix(line, "bestmove") {
			return nil
		}
	}
}

func (e *Engine) waitFor(marker string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		line, err := e.readLine(context.Background(), deadline)
		if err != nil {
			if errors.Is(err, errEvalTimeout) {
				e.log.Error("timeout waiting for %s", marker)
				return fmt.Errorf("timeout waiting for %s", marker)
			}
			return err
		}
		if strings.Contains(line, marker) {
			return nil
		}
	}
}

// EngineEvaluator adapts an Engine session to the Evaluator contract and owns
// the degrade policy: a position that times out yields the previous known
// score instead of failing the batch, while pipe errors (the process is gone)
// surface as fatal. The carried score is scoped to one game via NewGame.
type EngineEvaluator struct {
	engine    *Engine
	depth     int
	lastKnown Score
	log       *logger.Logger
}

// NewEngineEvaluator starts an engine session with the given search depth.
func NewEngineEvaluator(path string, depth int) (*EngineEvaluator, error) {
	engine, err := NewEngine(path)
	if err != nil {
		return nil, err
	}
	return &EngineEvaluator{
		engine: engine,
		depth:  depth,
		log:    logger.Default().WithPrefix("engine-eval"),
	}, nil
}

func (ev *EngineEvaluator) Evaluate(ctx context.Context, fen string) (Result, error) {
	res, err := ev.engine.EvaluateFEN(ctx, fen, ev.depth)
	if err != nil {
		if errors.Is(err, errEvalTimeout) {
			// One slow position must not sink the batch. If no score is
			// known yet this ply becomes a gap.
			ev.log.Warn("timeout on position, carrying forward previous score")
			return Result{Score: ev.lastKnown}, nil
		}
		return Result{}, err
	}
	if res.Score.Available {
		ev.lastKnown = res.Score
	}
	return res, nil
}

func (ev *EngineEvaluator) NewGame() {
	ev.lastKnown = Unavailable()
}

func (ev *EngineEvaluator) Close() error {
	return ev.engine.Close()
}

var _ Evaluator = (*EngineEvaluator)(nil)

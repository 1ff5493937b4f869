package eval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hoornstra/missmeester/internal/logger"
)

// CloudEvaluator looks positions up in a remote cloud evaluation service.
// Every lookup is independent and stateless aside from the credential; any
// miss, failure, or non-success status is absorbed into the unavailable
// marker with no retry, because a missing cached evaluation is an expected
// outcome and must never be conflated with a 0 cp score.
type CloudEvaluator struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *logger.Logger
}

// NewCloudEvaluator creates a cloud-eval client. token may be empty for
// anonymous (more tightly rate-limited) access.
func NewCloudEvaluator(baseURL, token string) *CloudEvaluator {
	return &CloudEvaluator{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		token:      token,
		log:        logger.Default().WithPrefix("cloud-eval"),
	}
}

type cloudEvalResp struct {
	PVs []struct {
		Moves string `json:"moves"`
		CP    *int   `json:"cp"`
		Mate  *int   `json:"mate"`
	} `json:"pvs"`
	Depth int `json:"depth"`
}

func (c *CloudEvaluator) Evaluate(ctx context.Context, fen string) (Result, error) {
	log := logger.FromContext(ctx).WithPrefix("cloud-eval")

	q := url.Values{}
	q.Set("fen", fen)
	q.Set("multiPv", "1")
	reqURL := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Warn("failed to create request: %v", err)
		return Result{}, nil
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("lookup failed: %v", err)
		return Result{}, nil
	}
	defer resp.Body.Close()

	log.Debug("response received in %v, status=%d", time.Since(start), resp.StatusCode)

	// 404 means the service has no cached evaluation for this position.
	if resp.StatusCode != http.StatusOK {
		log.Debug("no evaluation available: status=%d", resp.StatusCode)
		return Result{}, nil
	}

	var payload cloudEvalResp
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn("failed to decode response: %v", err)
		return Result{}, nil
	}
	if len(payload.PVs) == 0 {
		log.Debug("response carried no variations")
		return Result{}, nil
	}

	pv := payload.PVs[0]
	var cp float64
	switch {
	case pv.Mate != nil:
		cp = 10000.0 - float64(abs(*pv.Mate))*10.0
		if *pv.Mate < 0 {
			cp = -cp
		}
	case pv.CP != nil:
		cp = float64(*pv.CP)
	default:
		log.Debug("variation carried neither cp nor mate")
		return Result{}, nil
	}

	// The service reports relative to the side to move; normalize to white's
	// perspective like the engine backend does.
	parts := strings.Fields(fen)
	if len(parts) > 1 && parts[1] == "b" {
		cp = -cp
	}

	res := Result{Score: CP(cp)}
	if moves := strings.Fields(pv.Moves); len(moves) > 0 {
		res.BestMove = moves[0]
	}
	return res, nil
}

// NewGame is a no-op: the cloud backend holds no per-game state.
func (c *CloudEvaluator) NewGame() {}

// Close is a no-op: no persistent resource is held between calls.
func (c *CloudEvaluator) Close() error { return nil }

var _ Evaluator = (*CloudEvaluator)(nil)

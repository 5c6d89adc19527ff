package jupiter

import (
	"fmt"
	"strconv"
)

// QuoteResponse is the quote API's answer for a single swap quote. Amounts
// arrive as decimal strings.
type QuoteResponse struct {
	InAmount    string          `json:"inAmount"`
	OutAmount   string          `json:"outAmount"`
	SlippageBps int             `json:"slippageBps"`
	RoutePlan   []RoutePlanStep `json:"routePlan"`

	// Raw is the undecoded response body, kept for deterministic
	// liquidity seeding downstream.
	Raw []byte `json:"-"`
}

// RoutePlanStep is one hop of the quoted route. FeeAmount is optional.
type RoutePlanStep struct {
	SwapInfo  SwapInfo `json:"swapInfo"`
	FeeAmount string   `json:"feeAmount,omitempty"`
}

// SwapInfo identifies the program a route step clears through.
type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	ProgramID  string `json:"programId"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
}

// Amounts parses the input and output amounts.
func (q *QuoteResponse) Amounts() (in, out int64, err error) {
	in, err = strconv.ParseInt(q.InAmount, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("jupiter: parse inAmount %q: %w", q.InAmount, err)
	}
	out, err = strconv.ParseInt(q.OutAmount, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("jupiter: parse outAmount %q: %w", q.OutAmount, err)
	}
	return in, out, nil
}

// StepPrograms returns the program id of every route step, in route order.
func (q *QuoteResponse) StepPrograms() []string {
	programs := make([]string, 0, len(q.RoutePlan))
	for _, step := range q.RoutePlan {
		programs = append(programs, step.SwapInfo.ProgramID)
	}
	return programs
}

// StepInputMints returns the input mint of every route step, in route order.
func (q *QuoteResponse) StepInputMints() []string {
	mints := make([]string, 0, len(q.RoutePlan))
	for _, step := range q.RoutePlan {
		mints = append(mints, step.SwapInfo.InputMint)
	}
	return mints
}

// TotalFees sums the per-step fee amounts normalized by the input amount.
// Steps without a fee contribute nothing.
func (q *QuoteResponse) TotalFees(inAmount int64) (float64, error) {
	var total float64
	for _, step := range q.RoutePlan {
		if step.FeeAmount == "" {
			continue
		}
		fee, err := strconv.ParseFloat(step.FeeAmount, 64)
		if err != nil {
			return 0, fmt.Errorf("jupiter: parse feeAmount %q: %w", step.FeeAmount, err)
		}
		total += fee / float64(inAmount)
	}
	return total, nil
}

package tqclient

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tokenquest/sdk-go/core/swapapi"
	"github.com/tokenquest/sdk-go/core/types"
	"github.com/tokenquest/sdk-go/core/util"
)

// RequestQuote fetches the expected output for the request's token pair and
// amount. Quotes race: if a newer request is issued while this one is in
// flight, this result is discarded with types.ErrQuoteSuperseded so a stale
// price is never shown for the current input. Any failure clears the
// previously held quote.
func (c *Client) RequestQuote(ctx context.Context, req types.SwapRequest) (*types.QuoteResult, error) {
	seq := c.quoteSeq.Add(1)

	if err := req.Validate(); err != nil {
		c.clearQuote()
		return nil, errors.Wrapf(types.ErrUserInput, "%v", err)
	}
	fromTok, ok := c.registry.Resolve(req.FromToken)
	if !ok {
		c.clearQuote()
		return nil, errors.Wrapf(types.ErrUserInput, "unknown from token %q", req.FromToken)
	}
	toTok, ok := c.registry.Resolve(req.ToToken)
	if !ok {
		c.clearQuote()
		return nil, errors.Wrapf(types.ErrUserInput, "unknown to token %q", req.ToToken)
	}
	if fromTok.Address.Equal(toTok.Address) {
		c.clearQuote()
		return nil, errors.Wrap(types.ErrUserInput, "cannot quote a token against itself")
	}
	amountIn, err := util.ToSmallestUnit(req.Amount, fromTok.Decimals)
	if err != nil {
		c.clearQuote()
		return nil, errors.Wrapf(types.ErrUserInput, "%v", err)
	}

	quote, err := c.api.GetQuote(ctx, swapapi.QuoteInput{
		TokenIn:  fromTok.Address.Hex(),
		TokenOut: toTok.Address.Hex(),
		AmountIn: amountIn,
	})

	if c.quoteSeq.Load() != seq {
		// A newer request started while this one was in flight; its
		// result owns the display now.
		return nil, errors.WithStack(types.ErrQuoteSuperseded)
	}
	if err != nil {
		c.clearQuote()
		return nil, err
	}

	c.quoteMu.Lock()
	c.currentQuote = quote
	c.quoteMu.Unlock()
	return quote, nil
}

// CurrentQuote returns the quote currently valid for display, or nil when
// none is (never quoted, last quote failed, or it was cleared).
func (c *Client) CurrentQuote() *types.QuoteResult {
	c.quoteMu.Lock()
	defer c.quoteMu.Unlock()
	if c.currentQuote == nil {
		return nil
	}
	quote := *c.currentQuote
	return &quote
}

func (c *Client) clearQuote() {
	c.quoteMu.Lock()
	c.currentQuote = nil
	c.quoteMu.Unlock()
}

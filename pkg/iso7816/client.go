package iso7816

import (
	"fmt"
)

// Client sends commands over a Transmitter. T=0 readers surface two
// procedure answers to the application, and by default Client resolves them:
// 61XX triggers a GET RESPONSE for XX bytes, and 6CXX re-sends the command
// with Le = XX. Each Send returns the Trace of every exchange it made.
// WithoutAutoResponse restricts Send to the single command it was given.

// Transmitter abstracts the physical card connection.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// TransmitError wraps a failure of the underlying link.
type TransmitError struct {
	Err error
}

func (e *TransmitError) Error() string {
	return fmt.Sprintf("transmission error: %v", e.Err)
}

func (e *TransmitError) Unwrap() error {
	return e.Err
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithoutAutoResponse disables GET RESPONSE and Le correction handling.
func WithoutAutoResponse() ClientOption {
	return func(c *Client) {
		c.autoResponse = false
	}
}

// Client manages the high-level communication with the card.
type Client struct {
	Card         Transmitter
	autoResponse bool
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter, opts ...ClientOption) *Client {
	c := &Client{Card: card, autoResponse: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send transmits a command and handles protocol logic (61xx, 6Cxx).
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.Card.Transmit(rawCmd)
	if err != nil {
		return nil, &TransmitError{Err: err}
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, err
	}

	trace := Trace{{Command: cmd, Response: resp}}
	if !c.autoResponse {
		return trace, nil
	}

	var next *CommandAPDU
	switch resp.Status.SW1() {
	case 0x61:
		// GET RESPONSE stays on the channel of the original command.
		cla := cmd.Class
		cla.IsChained = false
		next = NewCommandAPDU(cla, mustInstruction(INS_GET_RESPONSE), 0x00, 0x00, nil, shortLength(resp.Status.SW2()))
	case 0x6C:
		retry := *cmd
		retry.Ne = shortLength(resp.Status.SW2())
		next = &retry
	default:
		return trace, nil
	}

	rest, err := c.Send(next)
	if err != nil {
		return trace, err
	}
	return append(trace, rest...), nil
}

// shortLength reads a one-byte length where 00 stands for 256.
func shortLength(b byte) int {
	if b == 0 {
		return MaxShortLe
	}
	return int(b)
}

package iso7816

// Exchange is one command and the answer the card gave to it.
type Exchange struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// Trace lists the exchanges made for a single Send. With automatic
// GET RESPONSE handling disabled it always holds exactly one entry;
// otherwise 61XX and 6CXX answers append the follow-up commands.
type Trace []Exchange

// Last returns the final exchange, or nil for an empty trace.
func (t Trace) Last() *Exchange {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// Final returns the response that closed the trace.
func (t Trace) Final() *ResponseAPDU {
	if last := t.Last(); last != nil {
		return last.Response
	}
	return nil
}

// Status returns the status word of the final response. An empty or
// incomplete trace reports 0000, which no card sends.
func (t Trace) Status() StatusWord {
	if resp := t.Final(); resp != nil {
		return resp.Status
	}
	return 0
}

// IsSuccess reports whether the final response carried a success status.
func (t Trace) IsSuccess() bool {
	return t.Final() != nil && t.Status().IsSuccess()
}

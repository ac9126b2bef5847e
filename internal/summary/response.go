package summary

import (
	"encoding/json"

	"github.com/dshills/brief/internal/tracker"
)

// Mode says whether a response came from a dry run or a model call.
type Mode string

const (
	ModeAnalyze   Mode = "analyze"
	ModeSummarize Mode = "summarize"
)

// ResponseParams carries the values a Response is built from.
type ResponseParams struct {
	RunID    string
	Mode     Mode
	Provider string
	Model    string
	Summary  string
	Cached   bool
	Context  Context
	Analysis TokenAnalysis
	Tracker  *tracker.Result
}

// Response is the immutable result of one request. Summary is empty for
// dry runs.
type Response struct {
	p ResponseParams
}

// NewResponse builds a Response. The context and tracker result are copied.
func NewResponse(p ResponseParams) *Response {
	p.Context = p.Context.clone()
	if p.Tracker != nil {
		t := p.Tracker.Clone()
		p.Tracker = &t
	}
	return &Response{p: p}
}

func (r *Response) RunID() string           { return r.p.RunID }
func (r *Response) Mode() Mode              { return r.p.Mode }
func (r *Response) Provider() string        { return r.p.Provider }
func (r *Response) Model() string           { return r.p.Model }
func (r *Response) Summary() string         { return r.p.Summary }
func (r *Response) Cached() bool            { return r.p.Cached }
func (r *Response) Analysis() TokenAnalysis { return r.p.Analysis }

// Context returns a copy of the context that was, or would have been, sent.
func (r *Response) Context() Context { return r.p.Context.clone() }

// Tracker returns the task cross-reference, or nil when none was resolved.
func (r *Response) Tracker() *tracker.Result {
	if r.p.Tracker == nil {
		return nil
	}
	t := r.p.Tracker.Clone()
	return &t
}

type responseJSON struct {
	RunID         string          `json:"run_id"`
	Mode          Mode            `json:"mode"`
	Provider      string          `json:"provider,omitempty"`
	Model         string          `json:"model"`
	Summary       string          `json:"summary"`
	Cached        bool            `json:"cached"`
	Context       Context         `json:"context"`
	TokenAnalysis TokenAnalysis   `json:"token_analysis"`
	Tracker       *tracker.Result `json:"tracker,omitempty"`
}

func (r *Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(responseJSON{
		RunID:         r.p.RunID,
		Mode:          r.p.Mode,
		Provider:      r.p.Provider,
		Model:         r.p.Model,
		Summary:       r.p.Summary,
		Cached:        r.p.Cached,
		Context:       r.p.Context,
		TokenAnalysis: r.p.Analysis,
		Tracker:       r.p.Tracker,
	})
}

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/iougemini/kmscheck/internal/endpoint"
	"github.com/iougemini/kmscheck/internal/extract"
	"github.com/iougemini/kmscheck/internal/probe"
	"github.com/iougemini/kmscheck/internal/publish"
	"github.com/iougemini/kmscheck/internal/source"
)

// ErrNoReachable means every candidate failed its probe. The run is over:
// publishing is skipped and the process exits non-zero.
var ErrNoReachable = errors.New("no reachable endpoint")

// Pipeline wires the stages of one run: fetch -> extract -> probe ->
// select -> publish. A nil Publisher turns the run into a dry scan.
type Pipeline struct {
	Fetcher    source.Fetcher
	Prober     *probe.Prober
	Publisher  publish.Publisher
	RecordName string
	TTL        int
}

// Outcome reports what a run did, for logging and for the scan command's
// table output.
type Outcome struct {
	Candidates []endpoint.Endpoint
	Results    []probe.Result
	Selected   endpoint.Endpoint
	RecordID   string
	Published  bool
}

// Run executes one discovery cycle. Fetch and extraction failures degrade
// to the fallback candidate list; an empty selection or a publish failure
// is terminal.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	out := &Outcome{}

	text, err := p.Fetcher.Fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Source fetch failed, using fallback candidates")
		out.Candidates = extract.Fallback()
	} else {
		out.Candidates = extract.Extract(text)
	}
	log.Info().Int("candidates", len(out.Candidates)).Msg("Candidate set built")

	out.Results = p.Prober.All(ctx, out.Candidates)
	reachable := 0
	for _, r := range out.Results {
		if r.Reachable {
			reachable++
		}
	}
	log.Info().
		Int("probed", len(out.Results)).
		Int("reachable", reachable).
		Msg("Probing complete")

	selected, ok := probe.First(out.Results)
	if !ok {
		return out, ErrNoReachable
	}
	out.Selected = selected
	log.Info().Str("endpoint", selected.String()).Msg("Selected endpoint")

	if p.Publisher == nil {
		return out, nil
	}

	rec := publish.RecordFor(p.RecordName, selected.Host, p.TTL)
	id, err := p.Publisher.Upsert(ctx, rec)
	if err != nil {
		return out, fmt.Errorf("publish %s -> %s: %w", rec.Name, rec.Content, err)
	}
	out.RecordID = id
	out.Published = true
	log.Info().
		Str("record", rec.Name).
		Str("type", rec.Type).
		Str("content", rec.Content).
		Str("id", id).
		Msg("Published DNS record")
	return out, nil
}

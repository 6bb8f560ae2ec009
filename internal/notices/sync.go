// Package notices pulls tariff-related Federal Register documents into the
// business data profile.
package notices

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/tariff-impact/internal/model"
	"github.com/sells-group/tariff-impact/pkg/federalregister"
)

// DefaultConfidence is applied to synced notices when none is configured.
const DefaultConfidence = 0.85

// ProfileWriter is the part of the profile store the sync writes to.
type ProfileWriter interface {
	UpdateData(ctx context.Context, f model.Field, pt model.Point) error
}

// Options configures a sync.
type Options struct {
	Terms       []string
	PerPage     int
	Confidence  float64
	Concurrency int
}

// Sync queries every term concurrently, merges the results by document
// number and writes them to tariffNotices as external data. Any failed term
// fails the whole sync and leaves the profile untouched.
func Sync(ctx context.Context, client federalregister.Client, w ProfileWriter, opts Options) ([]model.TariffNotice, error) {
	if len(opts.Terms) == 0 {
		return nil, eris.New("notices: no search terms configured")
	}
	confidence := opts.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = DefaultConfidence
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]model.TariffNotice)
	)
	for _, term := range opts.Terms {
		g.Go(func() error {
			resp, err := client.Search(gctx, federalregister.SearchParams{Term: term, PerPage: opts.PerPage})
			if err != nil {
				return eris.Wrapf(err, "notices: search %q", term)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, d := range resp.Results {
				if d.DocumentNumber == "" {
					continue
				}
				if _, dup := seen[d.DocumentNumber]; dup {
					continue
				}
				seen[d.DocumentNumber] = model.TariffNotice{
					DocumentNumber:  d.DocumentNumber,
					Title:           d.Title,
					Type:            d.Type,
					PublicationDate: d.PublicationDate,
					HTMLURL:         d.HTMLURL,
					Term:            term,
				}
			}
			zap.L().Debug("notices: term searched", zap.String("term", term), zap.Int("results", len(resp.Results)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.TariffNotice, 0, len(seen))
	for _, n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PublicationDate != out[j].PublicationDate {
			return out[i].PublicationDate > out[j].PublicationDate
		}
		return out[i].DocumentNumber < out[j].DocumentNumber
	})

	pt := model.NewExternalDataPoint(out, confidence, false, time.Now().UTC())
	if err := w.UpdateData(ctx, model.FieldTariffNotices, &pt); err != nil {
		return nil, eris.Wrap(err, "notices: write profile")
	}
	zap.L().Info("notices: synced", zap.Int("terms", len(opts.Terms)), zap.Int("notices", len(out)))
	return out, nil
}

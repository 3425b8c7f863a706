package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxProblems bounds the problems recorded per index
const maxProblems = 16

// checkEvery is how many keys are scanned between context checks
const checkEvery = 1024

// Report is the outcome of Verify
type Report struct {
	// Counts holds the number of keys per index, by index name
	Counts map[string]int64

	// Problems lists the inconsistencies found, if any
	Problems []string
}

// Consistent reports whether Verify found no problems
func (r *Report) Consistent() bool {
	return len(r.Problems) == 0
}

type indexReport struct {
	count    int64
	problems []string
}

func (r *indexReport) problem(format string, args ...any) {
	if len(r.problems) < maxProblems {
		r.problems = append(r.problems, fmt.Sprintf(format, args...))
	}
}

// Verify scans all indexes in parallel and checks that every key decodes to
// four identifiers, that the same quad is present in the canonical index, that
// canonical identifiers resolve in the dictionary and that all indexes hold
// the same number of keys. It returns ErrInconsistent along with the report
// when a check fails. Verify assumes no concurrent writers.
func (s *QuadStore) Verify(ctx context.Context) (*Report, error) {
	defer s.metrics.observe("verify", time.Now())

	reports := make([]indexReport, len(Indexes))
	g, ctx := errgroup.WithContext(ctx)
	for i, ix := range Indexes {
		i, ix := i, ix
		g.Go(func() error {
			return s.verifyIndex(ctx, ix, &reports[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Counts: make(map[string]int64, len(Indexes))}
	for i, ix := range Indexes {
		report.Counts[ix.String()] = reports[i].count
		report.Problems = append(report.Problems, reports[i].problems...)
	}

	canonical := report.Counts[Canonical.String()]
	for i, ix := range Indexes {
		if reports[i].count != canonical {
			report.Problems = append(report.Problems, fmt.Sprintf(
				"%s holds %d keys, %s holds %d", ix, reports[i].count, Canonical, canonical))
		}
	}

	logger := s.logger.WithField("action", "verify").WithField("quads", canonical)
	if !report.Consistent() {
		logger.WithField("problems", len(report.Problems)).Warn("indexes are inconsistent")
		return report, fmt.Errorf("%w: %d problems", ErrInconsistent, len(report.Problems))
	}
	logger.Debug("indexes are consistent")
	return report, nil
}

func (s *QuadStore) verifyIndex(ctx context.Context, ix Index, report *indexReport) error {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	it, err := txn.Scan(ix.Table, nil)
	if err != nil {
		return err
	}
	defer it.Close()

	canonical := ix.Table == Canonical.Table
	for it.Next() {
		report.count++
		if report.count%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		ids, err := ix.Decode(it.Key())
		if err != nil {
			report.problem("%s key %x: %v", ix, it.Key(), err)
			continue
		}

		if canonical {
			for role, id := range ids {
				found, err := txn.Has(TableIDict, id)
				if err != nil {
					return err
				}
				if !found {
					report.problem("%s key %x: %s identifier %x has no term", ix, it.Key(), Role(role), id)
				}
			}
			continue
		}

		found, err := txn.Has(Canonical.Table, Canonical.Key(ids))
		if err != nil {
			return err
		}
		if !found {
			report.problem("%s key %x is missing from %s", ix, it.Key(), Canonical)
		}
	}
	return ctx.Err()
}

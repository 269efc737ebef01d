package enrich

import (
	"context"

	"github.com/datakith/cleanse/internal/worker"
)

// Enricher fans lookups across a worker pool with a concurrency cap and
// merges results back by record index, so the output batch keeps its
// input order no matter which lookups finish first.
type Enricher struct {
	client      Client
	concurrency int
}

// NewEnricher creates a batch enricher.
func NewEnricher(client Client, concurrency int) *Enricher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Enricher{client: client, concurrency: concurrency}
}

type lookupJob struct {
	index  int
	email  string
	client Client
}

type lookupResult struct {
	index   int
	company string
}

func (r *lookupResult) GetError() error { return nil }

// Execute runs one lookup. Lookups never fail; an unresolvable email
// simply yields Unknown.
func (j *lookupJob) Execute(ctx context.Context) worker.Result {
	return &lookupResult{
		index:   j.index,
		company: j.client.Lookup(ctx, j.email),
	}
}

// EnrichBatch resolves a company for every email, in record order.
func (e *Enricher) EnrichBatch(ctx context.Context, emails []string) []string {
	companies := make([]string, len(emails))
	for i := range companies {
		companies[i] = Unknown
	}
	if len(emails) == 0 {
		return companies
	}

	pool := worker.NewPool(ctx, e.concurrency)
	pool.Start()
	for i, email := range emails {
		pool.Submit(&lookupJob{index: i, email: email, client: e.client})
	}

	for _, res := range pool.Wait() {
		lr := res.(*lookupResult)
		companies[lr.index] = lr.company
	}
	return companies
}

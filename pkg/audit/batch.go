package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sw33tLie/rulewatch/pkg/documents"
)

// BatchResult holds the outcome of checking a list of documents.
type BatchResult struct {
	RunID    string
	Outcomes []Outcome // same order as the input documents
	Started  time.Time
	Finished time.Time
}

// Count returns how many outcomes have status s.
func (r BatchResult) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// AllFailed is true when there was at least one document and none of them
// completed a cycle.
func (r BatchResult) AllFailed() bool {
	if len(r.Outcomes) == 0 {
		return false
	}
	return r.Count(StatusFailed)+r.Count(StatusSkipped) == len(r.Outcomes)
}

// RunBatch checks docs using a worker pool of the given size (1 if <= 0).
// A failing document never stops the others. Two entries with the same
// document id are never checked at the same time.
func (a *Auditor) RunBatch(ctx context.Context, docs []documents.Document, concurrency int) BatchResult {
	log := a.log()
	if concurrency <= 0 {
		concurrency = 1
	}
	result := BatchResult{
		RunID:    uuid.NewString(),
		Outcomes: make([]Outcome, len(docs)),
		Started:  time.Now(),
	}
	log.Infof("Starting check run %s for %d documents", result.RunID, len(docs))

	var locksMu sync.Mutex
	locks := make(map[string]*sync.Mutex)
	docLock := func(id string) *sync.Mutex {
		locksMu.Lock()
		defer locksMu.Unlock()
		if l, ok := locks[id]; ok {
			return l
		}
		l := &sync.Mutex{}
		locks[id] = l
		return l
	}

	indexChan := make(chan int, len(docs))
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexChan {
				doc := docs[idx]
				var out Outcome
				if err := ctx.Err(); err != nil {
					out = Outcome{
						DocumentID: doc.ID,
						Status:     StatusFailed,
						Err:        &CycleError{DocumentID: doc.ID, Op: "run", Err: err},
					}
				} else {
					l := docLock(doc.ID)
					l.Lock()
					out, _ = a.CheckDocument(ctx, doc)
					l.Unlock()
				}
				if out.Err != nil {
					if out.Status == StatusSkipped {
						log.Warnf("[%s] Skipping: %v", doc.ID, out.Err)
					} else {
						log.Errorf("%v", out.Err)
					}
				}
				// Each worker writes only its own index.
				result.Outcomes[idx] = out

				if a.OnDocumentDone != nil {
					a.OnDocumentDone(out)
				}
			}
		}()
	}

	for i := range docs {
		indexChan <- i
	}
	close(indexChan)
	wg.Wait()

	result.Finished = time.Now()
	log.Infof("Check run %s finished in %s: %d baseline, %d changed, %d unchanged, %d skipped, %d failed",
		result.RunID, result.Finished.Sub(result.Started).Round(time.Millisecond),
		result.Count(StatusBaseline), result.Count(StatusChanged), result.Count(StatusUnchanged),
		result.Count(StatusSkipped), result.Count(StatusFailed))
	return result
}

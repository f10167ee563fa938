package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/campuskit/coursesearch/internal/domain"
	"github.com/campuskit/coursesearch/internal/metrics"
)

// bulkConcurrency caps parallel bulk round trips when a batch spans multiple
// chunks.
const bulkConcurrency = 4

type bulkResponse struct {
	Errors bool                       `json:"errors"`
	Items  []map[string]bulkItemState `json:"items"`
}

type bulkItemState struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// Index upserts documents in bulk. Every top-level field not yet declared for
// the kind is added to the schema mapping before the documents are written.
// Per-document failures are aggregated into one BulkIndexError; accepted
// documents stay indexed.
func (e *Engine) Index(ctx context.Context, kind string, docs []map[string]any) error {
	if len(docs) == 0 {
		return nil
	}

	for _, doc := range docs {
		if err := e.checkMappings(ctx, kind, doc); err != nil {
			return err
		}
	}

	lines := make([][]byte, 0, 2*len(docs))
	for _, doc := range docs {
		header := map[string]any{
			"index": map[string]any{
				"_index": e.index,
				"_type":  kind,
			},
		}
		if id, ok := doc["id"].(string); ok {
			header["index"].(map[string]any)["_id"] = id
		}
		headerLine, err := json.Marshal(header)
		if err != nil {
			return fmt.Errorf("encode bulk header: %w", err)
		}
		sourceLine, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		lines = append(lines, headerLine, sourceLine)
	}

	failures, err := e.runBulk(ctx, lines, 2, func(item bulkItemState) string {
		if item.Error != "" {
			return fmt.Sprintf("%s: %s", item.ID, item.Error)
		}
		return ""
	})
	if err != nil {
		e.log.Error("bulk index failed",
			zap.String("index", e.index),
			zap.String("kind", kind),
			zap.Int("documents", len(docs)),
			zap.Error(err))
		return err
	}

	metrics.IndexedDocumentsTotal.WithLabelValues("ok").Add(float64(len(docs) - len(failures)))
	if len(failures) > 0 {
		metrics.IndexedDocumentsTotal.WithLabelValues("error").Add(float64(len(failures)))
		err := &domain.BulkIndexError{Messages: failures}
		e.log.Error("bulk index rejected documents",
			zap.String("index", e.index),
			zap.String("kind", kind),
			zap.Int("failed", len(failures)),
			zap.Error(err))
		return err
	}
	return nil
}

// Remove deletes documents by id in bulk. Deleting a missing id is not an
// error.
func (e *Engine) Remove(ctx context.Context, kind string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	lines := make([][]byte, 0, len(ids))
	for _, id := range ids {
		line, err := json.Marshal(map[string]any{
			"delete": map[string]any{
				"_index": e.index,
				"_type":  kind,
				"_id":    id,
			},
		})
		if err != nil {
			return fmt.Errorf("encode bulk delete: %w", err)
		}
		lines = append(lines, line)
	}

	failures, err := e.runBulk(ctx, lines, 1, func(item bulkItemState) string {
		if item.Error != "" && item.Status != http.StatusNotFound {
			return fmt.Sprintf("%s: %s", item.ID, item.Error)
		}
		return ""
	})
	if err != nil {
		e.log.Error("bulk remove failed",
			zap.String("index", e.index),
			zap.String("kind", kind),
			zap.Int("documents", len(ids)),
			zap.Error(err))
		return err
	}
	if len(failures) > 0 {
		return &domain.BulkIndexError{Messages: failures}
	}
	return nil
}

// runBulk sends the action lines in chunks of at most maxBatch actions, in
// parallel, and collects per-item failure messages in input order.
// linesPerAction is 2 for index actions (header + source) and 1 for deletes.
func (e *Engine) runBulk(ctx context.Context, lines [][]byte, linesPerAction int, failure func(bulkItemState) string) ([]string, error) {
	chunkLines := e.maxBatch * linesPerAction
	var chunks [][][]byte
	for start := 0; start < len(lines); start += chunkLines {
		end := min(start+chunkLines, len(lines))
		chunks = append(chunks, lines[start:end])
	}

	chunkFailures := make([][]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			res, err := e.doBulk(gctx, chunk)
			if err != nil {
				return err
			}
			for _, item := range res.Items {
				for _, state := range item {
					if msg := failure(state); msg != "" {
						chunkFailures[i] = append(chunkFailures[i], msg)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var failures []string
	for _, f := range chunkFailures {
		failures = append(failures, f...)
	}
	return failures, nil
}

func (e *Engine) doBulk(ctx context.Context, lines [][]byte) (*bulkResponse, error) {
	var body bytes.Buffer
	for _, line := range lines {
		body.Write(line)
		body.WriteByte('\n')
	}

	endpoint := fmt.Sprintf("%s/_bulk", e.baseURL)
	res, err := e.do(ctx, http.MethodPost, endpoint, body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: bulk %s: %v", domain.ErrBackend, e.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("%w: bulk %s: status %d: %s", domain.ErrBackend, e.index, res.StatusCode, msg)
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode bulk response: %v", domain.ErrBackend, err)
	}
	return &parsed, nil
}

// Package commit persists canonical records in bounded, atomic chunks.
package commit

import (
	"context"

	"go.uber.org/zap"

	"github.com/proffdata/import-cli/internal/model"
)

// DefaultChunkSize matches the document store's per-transaction item limit.
const DefaultChunkSize = 500

// CompanyWriter is the single store operation the engine needs.
type CompanyWriter interface {
	UpsertCompanies(ctx context.Context, records []model.CanonicalCompanyRecord) error
}

// Result is the accounting for one committed chunk, or an aggregate over
// several.
type Result struct {
	Successful int
	Failed     int
	Errors     []string
}

func (r *Result) add(other Result) {
	r.Successful += other.Successful
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}

// Engine partitions record sequences into chunks and writes each chunk as
// one atomic upsert. A failed chunk write counts every record in that chunk
// as failed, with one error entry for the chunk; the engine then moves on
// to the next chunk. There is no per-record retry.
type Engine struct {
	writer    CompanyWriter
	chunkSize int
}

// NewEngine creates an engine. chunkSize values below 1 fall back to
// DefaultChunkSize.
func NewEngine(writer CompanyWriter, chunkSize int) *Engine {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Engine{writer: writer, chunkSize: chunkSize}
}

// Commit writes records chunk by chunk, strictly in sequence, calling
// onChunk after each chunk with that chunk's result. It returns the
// aggregate. Commit stops early only on context cancellation or an onChunk
// error; chunk write failures are recorded and skipped past.
func (e *Engine) Commit(ctx context.Context, records []model.CanonicalCompanyRecord, onChunk func(Result) error) (Result, error) {
	var total Result

	for start := 0; start < len(records); start += e.chunkSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		end := min(start+e.chunkSize, len(records))
		chunk := records[start:end]

		res := Result{}
		if err := e.writer.UpsertCompanies(ctx, chunk); err != nil {
			res.Failed = len(chunk)
			res.Errors = []string{err.Error()}
			zap.L().Warn("chunk commit failed",
				zap.Int("offset", start),
				zap.Int("size", len(chunk)),
				zap.Error(err),
			)
		} else {
			res.Successful = len(chunk)
		}

		total.add(res)
		if onChunk != nil {
			if err := onChunk(res); err != nil {
				return total, err
			}
		}
	}

	return total, nil
}

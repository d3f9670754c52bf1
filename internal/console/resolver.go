package console

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/content-console/internal/mapping"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

// DefaultResolverConcurrency bounds the detail fetches in flight.
const DefaultResolverConcurrency = 8

// MappingResolver computes which target batches the selected sources are
// already linked to.
type MappingResolver struct {
	details     DetailFetcher
	contentType models.ContentType
	concurrency int
	logger      *zap.Logger
}

// NewMappingResolver constructs a resolver for one content type.
func NewMappingResolver(details DetailFetcher, contentType models.ContentType, logger *zap.Logger) *MappingResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MappingResolver{
		details:     details,
		contentType: contentType,
		concurrency: DefaultResolverConcurrency,
		logger:      logger,
	}
}

// WithConcurrency overrides the number of parallel detail fetches.
func (r *MappingResolver) WithConcurrency(n int) *MappingResolver {
	r.concurrency = n
	return r
}

// Resolve fetches every source detail in parallel. Any failed fetch fails the
// whole resolution; no partial index is returned.
func (r *MappingResolver) Resolve(ctx context.Context, sourceIDs []int64) (*mapping.Index, []models.ContentDetail, error) {
	ids := uniqueIDs(sourceIDs)
	if len(ids) == 0 {
		return mapping.Build(nil), []models.ContentDetail{}, nil
	}

	details := make([]models.ContentDetail, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			detail, err := r.details.FetchDetail(gctx, r.contentType, id)
			if err != nil {
				return asNetworkError(err, fmt.Sprintf("failed to load %s %d", r.contentType, id))
			}
			if detail == nil {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %d not found", r.contentType, id))
			}
			details[i] = *detail
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Warn("mapping resolution failed", zap.String("content_type", string(r.contentType)), zap.Int("sources", len(ids)), zap.Error(err))
		return nil, nil, err
	}

	return mapping.Build(mapping.SourcesFromDetails(details)), details, nil
}

func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package repository

import (
	"context"

	"opportunity-agent/internal/domain/entity"
)

type DirectoryIndex interface {
	SearchTeams(ctx context.Context, query string, top int) ([]entity.DirectoryTeam, error)
	AllTeams(ctx context.Context) ([]entity.DirectoryTeam, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, opportunityText string, teams []entity.DirectoryTeam) (*entity.Analysis, error)
	Model() string
}

type AnalysisSink interface {
	SaveAnalysis(ctx context.Context, rec entity.AnalysisRecord) (string, error)
}

type BlobStore interface {
	UploadPDF(ctx context.Context, data []byte, path string) (string, error)
}

type RequestLimiter interface {
	Allow(ctx context.Context, caller string) (bool, error)
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

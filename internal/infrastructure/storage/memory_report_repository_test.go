package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"xray-diagnoser/internal/domain/entity"
)

func TestMemoryReportRepository_SaveGetList(t *testing.T) {
	repo := NewMemoryReportRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &entity.EvaluationReport{Model: "pneumonia", Samples: 1}))
	require.NoError(t, repo.Save(ctx, &entity.EvaluationReport{Model: "covid19", Samples: 2}))
	require.NoError(t, repo.Save(ctx, &entity.EvaluationReport{Model: "pneumonia", Samples: 3}))

	r, err := repo.Get(ctx, "pneumonia")
	require.NoError(t, err)
	require.Equal(t, 3, r.Samples)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "pneumonia", list[0].Model)
	require.Equal(t, "covid19", list[1].Model)

	_, err = repo.Get(ctx, "unknown")
	require.Error(t, err)
}

package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintel/models"
)

var parquetMagic = []byte("PAR1")

func scored() []models.ScoredDeal {
	created := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	return []models.ScoredDeal{
		{
			Deal:      models.Deal{ID: "D1", CreatedDate: &created, Outcome: "won", DealAmount: 12000, SalesCycleDays: 31, LeadSource: "Inbound"},
			CycleRisk: 0.62, ACVRisk: -0.2, LeadSourceRisk: 0.2, RiskScore: 21.7, RiskBand: models.RiskBandLow,
		},
		{
			Deal:      models.Deal{ID: "D2", Outcome: "open", DealAmount: 8000, SalesCycleDays: 50, LeadSource: "Outbound"},
			CycleRisk: 1, ACVRisk: 0.2, LeadSourceRisk: 0.4, StallRisk: 1, RiskScore: 68, RiskBand: models.RiskBandHigh,
		},
	}
}

func TestRiskParquet(t *testing.T) {
	data, err := RiskParquet(scored())
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.True(t, bytes.HasPrefix(data, parquetMagic))
	assert.True(t, bytes.HasSuffix(data, parquetMagic))
}

func TestRiskParquetEmpty(t *testing.T) {
	data, err := RiskParquet(nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, parquetMagic))
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	return &s3.PutObjectOutput{}, f.err
}

func TestSaveLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk.parquet")
	require.NoError(t, Save(context.Background(), nil, path, []byte("PAR1data")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("PAR1data"), got)
}

func TestSaveS3(t *testing.T) {
	putter := &fakePutter{}
	require.NoError(t, Save(context.Background(), putter, "s3://reports/exports/risk.parquet", []byte("PAR1")))

	assert.Equal(t, "reports", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "exports/risk.parquet", aws.ToString(putter.input.Key))
	assert.Equal(t, []byte("PAR1"), putter.body)

	assert.Error(t, Save(context.Background(), nil, "s3://reports/risk.parquet", nil))
	assert.Error(t, Save(context.Background(), putter, "s3://reports", nil))

	putter.err = errors.New("denied")
	assert.Error(t, Save(context.Background(), putter, "s3://reports/risk.parquet", nil))
}

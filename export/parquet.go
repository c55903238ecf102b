// Package export serializes the scored deal set for download or archiving.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"salesintel/dataset"
	"salesintel/logger"
	"salesintel/models"
)

// ContentType is the media type served for parquet downloads.
const ContentType = "application/vnd.apache.parquet"

type memFile struct {
	buffer *bytes.Buffer
}

func newMemFile() *memFile { return &memFile{buffer: &bytes.Buffer{}} }

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, io.EOF }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }
func (m *memFile) Bytes() []byte                             { return m.buffer.Bytes() }

// riskRecord is the parquet schema of one scored deal.
type riskRecord struct {
	DealID         string  `parquet:"name=deal_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	CreatedDate    *int64  `parquet:"name=created_date, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL"`
	ClosedDate     *int64  `parquet:"name=closed_date, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL"`
	Outcome        string  `parquet:"name=outcome, type=BYTE_ARRAY, convertedtype=UTF8"`
	DealAmount     float64 `parquet:"name=deal_amount, type=DOUBLE"`
	SalesCycleDays int32   `parquet:"name=sales_cycle_days, type=INT32"`
	LeadSource     string  `parquet:"name=lead_source, type=BYTE_ARRAY, convertedtype=UTF8"`
	CycleRisk      float64 `parquet:"name=cycle_risk, type=DOUBLE"`
	ACVRisk        float64 `parquet:"name=acv_risk, type=DOUBLE"`
	LeadSourceRisk float64 `parquet:"name=lead_source_risk, type=DOUBLE"`
	StallRisk      float64 `parquet:"name=stall_risk, type=DOUBLE"`
	RiskScore      float64 `parquet:"name=risk_score, type=DOUBLE"`
	RiskBand       string  `parquet:"name=risk_band, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func toRecord(d models.ScoredDeal) riskRecord {
	rec := riskRecord{
		DealID:         d.ID,
		Outcome:        d.Outcome,
		DealAmount:     d.DealAmount,
		SalesCycleDays: int32(d.SalesCycleDays),
		LeadSource:     d.LeadSource,
		CycleRisk:      d.CycleRisk,
		ACVRisk:        d.ACVRisk,
		LeadSourceRisk: d.LeadSourceRisk,
		StallRisk:      d.StallRisk,
		RiskScore:      d.RiskScore,
		RiskBand:       d.RiskBand,
	}
	if d.CreatedDate != nil {
		ms := d.CreatedDate.UTC().UnixMilli()
		rec.CreatedDate = &ms
	}
	if d.ClosedDate != nil {
		ms := d.ClosedDate.UTC().UnixMilli()
		rec.ClosedDate = &ms
	}
	return rec
}

// RiskParquet encodes scored deals as a snappy-compressed parquet file.
func RiskParquet(scored []models.ScoredDeal) ([]byte, error) {
	mf := newMemFile()
	pw, err := writer.NewParquetWriter(mf, new(riskRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, d := range scored {
		if err := pw.Write(toRecord(d)); err != nil {
			return nil, fmt.Errorf("write parquet row %s: %w", d.ID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finish parquet file: %w", err)
	}
	return mf.Bytes(), nil
}

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Save writes data to a local path or, when an S3 client is set, an s3:// URI.
func Save(ctx context.Context, client ObjectPutter, dest string, data []byte) error {
	log := logger.GetLogger().WithComponent("export")

	if !strings.HasPrefix(dest, "s3://") {
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		log.WithFields(logger.Fields{"path": dest, "bytes": len(data)}).Info("export written")
		return nil
	}

	bucket, key, ok := dataset.SplitS3URI(dest)
	if !ok {
		return fmt.Errorf("malformed s3 uri %q", dest)
	}
	if client == nil {
		return fmt.Errorf("no s3 client configured for %q", dest)
	}
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", dest, err)
	}
	log.WithFields(logger.Fields{"s3_key": key, "bucket": bucket, "bytes": len(data)}).Info("export uploaded")
	return nil
}

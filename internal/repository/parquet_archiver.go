package repository

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/domain/repository"
	applogger "RollSpread/pkg/logger"
)

type spreadParquetRecord struct {
	Date           int32   `parquet:"name=Date, type=INT32, convertedtype=DATE"`
	Year           string  `parquet:"name=Year, type=BYTE_ARRAY, convertedtype=UTF8"`
	Spread         float64 `parquet:"name=spread, type=DOUBLE"`
	LastTrade      int32   `parquet:"name=LastTrade, type=INT32, convertedtype=DATE"`
	InstrumentName string  `parquet:"name=InstrumentName, type=BYTE_ARRAY, convertedtype=UTF8"`
	Group          string  `parquet:"name=Group, type=BYTE_ARRAY, convertedtype=UTF8"`
	Region         string  `parquet:"name=Region, type=BYTE_ARRAY, convertedtype=UTF8"`
	Month          string  `parquet:"name=Month, type=BYTE_ARRAY, convertedtype=UTF8"`
	RollFlag       string  `parquet:"name=RollFlag, type=BYTE_ARRAY, convertedtype=UTF8"`
	Desc           string  `parquet:"name=Desc, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func epochDays(t time.Time) int32 {
	return int32(t.UTC().Unix() / 86400)
}

type memFile struct {
	buffer *bytes.Buffer
}

func newMemFile() *memFile {
	return &memFile{buffer: &bytes.Buffer{}}
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, fmt.Errorf("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }
func (m *memFile) Bytes() []byte                             { return m.buffer.Bytes() }

// ObjectPutter is the part of *s3.Client the archiver uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ParquetArchiver writes each batch's output as one parquet object, either
// under a local directory or to an S3 bucket.
type ParquetArchiver struct {
	dir         string
	prefix      string
	compression string
	bucket      string
	s3          ObjectPutter
	l           *applogger.Logger
}

var _ repository.Archiver = (*ParquetArchiver)(nil)

type ArchiverOption func(*ParquetArchiver)

func WithArchiveDir(dir string) ArchiverOption {
	return func(a *ParquetArchiver) { a.dir = dir }
}

func WithArchivePrefix(prefix string) ArchiverOption {
	return func(a *ParquetArchiver) { a.prefix = strings.Trim(prefix, "/") }
}

// WithArchiveCompression selects snappy, gzip or none.
func WithArchiveCompression(c string) ArchiverOption {
	return func(a *ParquetArchiver) { a.compression = strings.ToLower(c) }
}

// WithS3 uploads to bucket instead of writing locally.
func WithS3(client ObjectPutter, bucket string) ArchiverOption {
	return func(a *ParquetArchiver) {
		a.s3 = client
		a.bucket = bucket
	}
}

func WithArchiveLogger(l *applogger.Logger) ArchiverOption {
	return func(a *ParquetArchiver) { a.l = l }
}

func NewParquetArchiver(opts ...ArchiverOption) *ParquetArchiver {
	a := &ParquetArchiver{dir: "archive", prefix: "contract_margins", compression: "snappy", l: applogger.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewS3Client builds an S3 client for region. Static credentials are used
// when both keys are set, otherwise the default chain.
func NewS3Client(ctx context.Context, region, accessKey, secretKey string) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// Key returns the object key for a run: prefix/date=YYYY-MM-DD/<runID>.parquet.
func (a *ParquetArchiver) Key(runID string, runDate time.Time) string {
	return path.Join(a.prefix, "date="+runDate.UTC().Format("2006-01-02"), runID+".parquet")
}

// Archive encodes records and stores them, returning the written location.
func (a *ParquetArchiver) Archive(ctx context.Context, runID string, runDate time.Time, records []models.SpreadRecord) (string, error) {
	data, err := a.encode(records)
	if err != nil {
		return "", err
	}
	key := a.Key(runID, runDate)

	if a.s3 != nil {
		_, err := a.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/octet-stream"),
			Metadata: map[string]string{
				"content-type": "parquet",
				"compression":  a.compression,
				"run-id":       runID,
			},
		})
		if err != nil {
			return "", fmt.Errorf("upload archive: %w", err)
		}
		loc := fmt.Sprintf("s3://%s/%s", a.bucket, key)
		a.l.Info("archive uploaded", applogger.String("location", loc), applogger.Int("rows", len(records)))
		return loc, nil
	}

	dst := filepath.Join(a.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}
	a.l.Info("archive written", applogger.String("location", dst), applogger.Int("rows", len(records)))
	return dst, nil
}

func (a *ParquetArchiver) encode(records []models.SpreadRecord) ([]byte, error) {
	mem := newMemFile()
	pw, err := writer.NewParquetWriter(mem, new(spreadParquetRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("new parquet writer: %w", err)
	}

	switch a.compression {
	case "snappy":
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	default:
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	}

	for _, r := range records {
		rec := spreadParquetRecord{
			Date:           epochDays(r.Date),
			Year:           r.Year,
			Spread:         r.Spread,
			LastTrade:      epochDays(r.LastTrade),
			InstrumentName: r.InstrumentName,
			Group:          r.Group,
			Region:         r.Region,
			Month:          r.Month,
			RollFlag:       r.RollFlag,
			Desc:           r.Desc,
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("write spread record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return mem.Bytes(), nil
}

package tracing

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/agentcore/orchestrator/pkg/core"
)

// S3TraceExporterConfig configures long-term archival of closed traces.
type S3TraceExporterConfig struct {
	Bucket string
	Region string
	Prefix string
}

// S3TraceExporter uploads finished traces as JSON blobs to an
// S3-compatible bucket, for retention beyond the Tracer's in-memory ring
// buffer. It is entirely optional: a Tracer works identically whether or
// not an exporter is attached.
type S3TraceExporter struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3TraceExporter builds an exporter from the default AWS credential
// chain, matching the region the bucket lives in.
func NewS3TraceExporter(ctx context.Context, cfg S3TraceExporterConfig) (*S3TraceExporter, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 trace exporter: bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("s3 trace exporter: load aws config: %w", err)
	}

	return &S3TraceExporter{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Export uploads tr as a JSON object keyed by its trace ID. Failures are
// returned to the caller rather than swallowed; a host that wants
// best-effort archival can log and ignore them.
func (e *S3TraceExporter) Export(ctx context.Context, tr *core.Trace) error {
	if tr == nil {
		return nil
	}
	body, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("s3 trace exporter: marshal trace: %w", err)
	}

	key := e.objectKey(tr.TraceID)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(string(body)),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 trace exporter: put object: %w", err)
	}
	return nil
}

func (e *S3TraceExporter) objectKey(traceID string) string {
	name := traceID + ".json"
	if e.prefix == "" {
		return name
	}
	return path.Join(e.prefix, name)
}

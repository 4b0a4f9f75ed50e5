package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	conf "github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/config"
)

var ErrQueueFull = errors.New("artifact upload queue is full")

type putReq struct {
	name     string
	payload  []byte
	onStored func(string)
}

// R2 stores artifacts in a Cloudflare R2 bucket through a bounded
// worker pool. Puts are queued and retried with backoff; the cache
// treats them as best-effort.
type R2 struct {
	bucket string

	workers        int
	queueSize      int
	maxRetries     int
	retryBaseDelay time.Duration

	queue chan putReq
	wg    sync.WaitGroup

	client   *s3.Client
	uploader *manager.Uploader
	log      *zap.Logger
}

func NewR2(cfg *conf.R2Config, log *zap.Logger) (*R2, error) {
	s := &R2{
		bucket:         cfg.BucketName,
		workers:        4,
		queueSize:      256,
		maxRetries:     3,
		retryBaseDelay: 300 * time.Millisecond,
		log:            log,
	}

	awsConf, err := awscfg.LoadDefaultConfig(context.Background(),
		awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretKey, "",
		)),
		awscfg.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s.client = s3.NewFromConfig(awsConf, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
		o.UsePathStyle = true
	})
	s.uploader = manager.NewUploader(s.client)

	s.queue = make(chan putReq, s.queueSize)
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	log.Info("r2 artifact store initialized", zap.String("bucket", s.bucket), zap.Int("workers", s.workers))
	return s, nil
}

// Close waits for all queued uploads to drain.
func (s *R2) Close() {
	close(s.queue)
	s.wg.Wait()
}

// Put queues an upload without blocking. A full queue drops the
// artifact write; the caller only loses a cache entry.
func (s *R2) Put(ctx context.Context, name string, data []byte, onStored func(string)) error {
	req := putReq{name: name, payload: data, onStored: onStored}
	select {
	case s.queue <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (s *R2) worker() {
	defer s.wg.Done()
	for req := range s.queue {
		for attempt := 1; ; attempt++ {
			_, err := s.uploader.Upload(context.Background(), &s3.PutObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(req.name),
				Body:   bytes.NewReader(req.payload),
			})
			if err == nil {
				if req.onStored != nil {
					req.onStored(req.name)
				}
				break
			}

			if attempt > s.maxRetries {
				s.log.Error("artifact upload dropped after retries",
					zap.String("name", req.name), zap.Error(err))
				break
			}
			time.Sleep(s.backoffDelay(attempt))
		}
	}
}

func (s *R2) backoffDelay(attempt int) time.Duration {
	delay := s.retryBaseDelay << (attempt - 1)
	jitter := time.Duration(int64(delay) / 10)
	return delay - (jitter / 2) + time.Duration(time.Now().UnixNano()%int64(jitter+1))
}

func (s *R2) Fetch(ctx context.Context, location string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(location),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %q: %w", location, err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, fmt.Errorf("failed to read body for %q: %w", location, err)
	}
	return buf.Bytes(), nil
}

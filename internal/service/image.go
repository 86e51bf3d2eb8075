package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pageza/leanfeast/backend/config"
	"github.com/pageza/leanfeast/backend/internal/metrics"
	"github.com/pageza/leanfeast/backend/internal/retry"
	"go.uber.org/zap"
)

const (
	pollinationsService = "pollinations"
	imageSize           = 1024
)

// BuildImagePrompt creates the food photography prompt for a recipe title
func BuildImagePrompt(title string) string {
	return "Top-down professional food photography of " + strings.TrimSpace(title) +
		", natural colors, realistic textures, authentic ingredients, soft natural lighting, high detail, " +
		"8k ultra-realistic, dish only, no extra objects, no text, no labels"
}

// PollinationsClient renders images through the Pollinations image API
type PollinationsClient struct {
	baseURL string
	client  *http.Client
	policy  retry.Policy
	now     func() time.Time
}

var _ ImageGenerator = (*PollinationsClient)(nil)

// DefaultImagePolicy makes three attempts waiting 1s then 2s
func DefaultImagePolicy() retry.Policy {
	return retry.New("image", 3, time.Second, 2*time.Second)
}

// NewPollinationsClient creates a new PollinationsClient
func NewPollinationsClient(baseURL string, policy retry.Policy, logger *zap.Logger) *PollinationsClient {
	return &PollinationsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		policy:  policy.WithLogger(logger.Named("pollinations")),
		now:     time.Now,
	}
}

// Generate returns the JPEG bytes rendered for prompt
func (c *PollinationsClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	var image []byte
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		start := time.Now()
		data, err := c.generateAttempt(ctx, prompt)
		metrics.RecordUpstreamCall(pollinationsService, err, time.Since(start))
		if err != nil {
			return err
		}
		image = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}
	return image, nil
}

func (c *PollinationsClient) generateAttempt(ctx context.Context, prompt string) ([]byte, error) {
	q := url.Values{}
	q.Set("model", "flux")
	q.Set("width", strconv.Itoa(imageSize))
	q.Set("height", strconv.Itoa(imageSize))
	q.Set("seed", strconv.FormatInt(c.now().Unix(), 10))
	q.Set("nologo", "true")
	endpoint := c.baseURL + "/prompt/" + url.PathEscape(prompt) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{Service: pollinationsService, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty image in response")
	}
	return body, nil
}

// S3Storage uploads objects to the configured bucket
type S3Storage struct {
	cfg *config.S3Config
}

var _ ObjectStorage = (*S3Storage)(nil)

// NewS3Storage creates a new S3Storage
func NewS3Storage(cfg *config.S3Config) *S3Storage {
	return &S3Storage{cfg: cfg}
}

// Put uploads body under key and returns its public URL
func (s *S3Storage) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.cfg.ObjectURL(key), nil
}

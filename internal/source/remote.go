package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RemoteConfig configures access to remote sources.
// Zero values fall back to the AWS default credential chain and a plain HTTP client.
type RemoteConfig struct {
	Region    string
	Endpoint  string // S3-compatible endpoint, enables path-style addressing
	AccessKey string
	SecretKey string

	HTTPClient *http.Client
}

// Location describes one form of source location accepted by Open.
type Location struct {
	Form        string
	Description string
}

// Locations lists the source location forms accepted by Open.
var Locations = []Location{
	{Form: "path/to/file.csv", Description: "Local file, relative to the working directory"},
	{Form: "file:///abs/path.csv", Description: "Local file URL"},
	{Form: "s3://bucket/key.csv", Description: "S3 object, read with the AWS default credential chain"},
	{Form: "https://host/file.csv", Description: "HTTP(S) download, any status other than 200 fails the load"},
}

type scheme string

const (
	schemeLocal scheme = "local"
	schemeFile  scheme = "file"
	schemeS3    scheme = "s3"
	schemeHTTP  scheme = "http"
)

func detectScheme(location string) scheme {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "s3://"):
		return schemeS3
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
		return schemeHTTP
	case strings.HasPrefix(lower, "file://"):
		return schemeFile
	default:
		return schemeLocal
	}
}

func isURL(location string) bool {
	s := detectScheme(location)
	return s == schemeS3 || s == schemeHTTP
}

// IsRemote reports whether location refers to an s3 or http(s) source.
func IsRemote(location string) bool {
	return isURL(location)
}

func openLocation(ctx context.Context, location string, cfg RemoteConfig) (io.ReadCloser, error) {
	switch detectScheme(location) {
	case schemeHTTP:
		return openHTTP(ctx, location, cfg.HTTPClient)
	case schemeS3:
		return openS3(ctx, location, cfg)
	case schemeFile:
		return os.Open(strings.TrimPrefix(location, "file://"))
	default:
		return os.Open(location)
	}
}

func openHTTP(ctx context.Context, url string, client *http.Client) (io.ReadCloser, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("HTTP request returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func parseS3URL(url string) (bucket, key string, err error) {
	p := url[len("s3://"):]
	parts := strings.SplitN(p, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return parts[0], parts[1], nil
}

func openS3(ctx context.Context, url string, cfg RemoteConfig) (io.ReadCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}

	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

func newS3Client(ctx context.Context, cfg RemoteConfig) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

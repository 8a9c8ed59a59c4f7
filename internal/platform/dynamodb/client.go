// Package dynamodb builds DynamoDB clients from catalog configuration.
package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

type Config struct {
	Region string
	// Endpoint overrides the service endpoint, e.g. DynamoDB Local.
	Endpoint string
	// Static credentials; the default provider chain is used when AccessKeyID is empty.
	AccessKeyID     string
	SecretAccessKey string
}

// NewClient loads the AWS configuration and returns a DynamoDB client.
func NewClient(ctx context.Context, cfg Config, log *logger.Logger) (*dynamodb.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("dynamodb: logger required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	log.With("client", "DynamoDB").Info("dynamodb client ready", "region", region, "endpoint", endpoint)
	return client, nil
}

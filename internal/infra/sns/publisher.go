// Package sns implements the EventPublisher port against an AWS SNS FIFO
// topic.
package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Video2Frames/video-processor/internal/domain/event"
	"github.com/Video2Frames/video-processor/internal/domain/port"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

type PublisherConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	TopicARN        string
	GroupID         string
}

type Publisher struct {
	client   *awssns.Client
	topicARN string
	groupID  string
}

func NewPublisher(ctx context.Context, cfg PublisherConfig) (*Publisher, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Publisher{
		client:   awssns.NewFromConfig(awsCfg),
		topicARN: cfg.TopicARN,
		groupID:  cfg.GroupID,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, ev event.DomainEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return &port.PublishError{EventType: ev.EventType(), Err: err}
	}

	_, err = p.client.Publish(ctx, &awssns.PublishInput{
		TopicArn:               aws.String(p.topicARN),
		Message:                aws.String(string(body)),
		MessageGroupId:         aws.String(p.groupID),
		MessageDeduplicationId: aws.String(uuid.NewString()),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(ev.EventType()),
			},
		},
	})
	if err != nil {
		return &port.PublishError{EventType: ev.EventType(), Err: err}
	}
	return nil
}

package sns

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/civic-relay/internal/config"
)

// AlertSender publishes operational alerts, e.g. when department-mail
// delivery exhausts its retries. Callers treat every publish as best-effort.
type AlertSender interface {
	Alert(ctx context.Context, subject, message string) error
}

type sender struct {
	client   *sns.Client
	topicARN string
}

func NewSender(cfg *config.Config) (AlertSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSAlertTopicARN}, nil
}

func (s *sender) Alert(ctx context.Context, subject, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &s.topicARN,
		Subject:  &subject,
		Message:  &message,
	})
	return err
}

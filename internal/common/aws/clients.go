package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Clients holds whichever notification clients were asked for. A nil field
// means that channel is off.
type Clients struct {
	SES *SESClient
	SNS *SNSClient
}

func loadConfig(ctx context.Context, region string) (aws.Config, error) {
	if region == "" {
		return aws.Config{}, fmt.Errorf("aws region is empty")
	}
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

// NewClients loads the shared AWS config once and builds the requested
// clients from it. It loads nothing when neither is wanted.
func NewClients(ctx context.Context, region string, withSES, withSNS bool) (*Clients, error) {
	c := &Clients{}
	if !withSES && !withSNS {
		return c, nil
	}

	cfg, err := loadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	if withSES {
		c.SES = &SESClient{client: ses.NewFromConfig(cfg)}
	}
	if withSNS {
		c.SNS = &SNSClient{client: sns.NewFromConfig(cfg)}
	}
	return c, nil
}

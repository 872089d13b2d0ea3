package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const (
	senderIDAttribute = "AWS.SNS.SMS.SenderID"
	smsTypeAttribute  = "AWS.SNS.SMS.SMSType"
)

type SNSClient struct {
	client *sns.Client
}

// Publish satisfies the SMS interface of the waste alerts worker.
func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input, optFns...)
}

// TransactionalSMS builds a direct SMS publish with the Transactional type.
func TransactionalSMS(phone, text, senderID string) *sns.PublishInput {
	attrs := map[string]types.MessageAttributeValue{
		smsTypeAttribute: {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if senderID != "" {
		attrs[senderIDAttribute] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(senderID)}
	}
	return &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(text),
		MessageAttributes: attrs,
	}
}

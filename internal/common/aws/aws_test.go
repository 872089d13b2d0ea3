package aws

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClients_RequireRegion(t *testing.T) {
	_, err := NewClients(context.Background(), "", true, false)
	assert.Error(t, err)

	_, err = NewClients(context.Background(), "", false, true)
	assert.Error(t, err)
}

func TestNewClients(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	tests := []struct {
		name             string
		region           string
		withSES, withSNS bool
	}{
		{"none needs no region", "", false, false},
		{"email only", "ap-south-1", true, false},
		{"sms only", "ap-south-1", false, true},
		{"both", "ap-south-1", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClients(context.Background(), tt.region, tt.withSES, tt.withSNS)
			require.NoError(t, err)
			assert.Equal(t, tt.withSES, c.SES != nil)
			assert.Equal(t, tt.withSNS, c.SNS != nil)
		})
	}
}

func TestTextEmail(t *testing.T) {
	in := TextEmail("mess@example.com", "r001@example.com", "Waste alert", "You wasted 12 kg.")

	assert.Equal(t, "mess@example.com", aws.ToString(in.Source))
	assert.Equal(t, []string{"r001@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Waste alert", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "You wasted 12 kg.", aws.ToString(in.Message.Body.Text.Data))
	assert.Nil(t, in.Message.Body.Html)
}

func TestTransactionalSMS(t *testing.T) {
	in := TransactionalSMS("+911234567890", "fine due", "MESS")
	assert.Equal(t, "+911234567890", aws.ToString(in.PhoneNumber))
	assert.Equal(t, "MESS", aws.ToString(in.MessageAttributes[senderIDAttribute].StringValue))
	assert.Equal(t, "Transactional", aws.ToString(in.MessageAttributes[smsTypeAttribute].StringValue))

	in = TransactionalSMS("+911234567890", "fine due", "")
	assert.NotContains(t, in.MessageAttributes, senderIDAttribute)
}

package notify

import (
	"context"
	"errors"
	"testing"

	"agri-supply/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSender) SendEmail(ctx context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestGroupByFarmer(t *testing.T) {
	orders := []models.AllocatedOrder{
		{OrderID: "o1", FarmerID: "u2", CropName: "maize"},
		{OrderID: "o2", FarmerID: "u1", CropName: "maize"},
		{OrderID: "o3", FarmerID: "u2", CropName: "beans"},
	}
	groups := GroupByFarmer(orders)
	require.Len(t, groups, 2)
	assert.Equal(t, "u2", groups[0].FarmerID)
	assert.Len(t, groups[0].Orders, 2)
	assert.Equal(t, "u1", groups[1].FarmerID)
}

func TestSESServiceSendsToFarmer(t *testing.T) {
	sender := &fakeSender{}
	svc := &SESService{client: sender, from: "orders@example.com"}

	err := svc.NotifyAllocation(context.Background(), Allocation{
		FarmerID:    "u1",
		FarmerName:  "Amina",
		FarmerEmail: "amina@example.com",
		Orders:      []models.AllocatedOrder{{OrderID: "o1", CropName: "maize", AssignedKg: 50}},
	})
	require.NoError(t, err)
	require.Len(t, sender.inputs, 1)

	in := sender.inputs[0]
	assert.Equal(t, "orders@example.com", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"amina@example.com"}, in.Destination.ToAddresses)
	assert.Contains(t, aws.ToString(in.Content.Simple.Body.Text.Data), "maize: 50.00 kg")
}

func TestSESServiceErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("throttled")}
	svc := &SESService{client: sender, from: "orders@example.com"}

	err := svc.NotifyAllocation(context.Background(), Allocation{FarmerID: "u1"})
	assert.Error(t, err)
	assert.Empty(t, sender.inputs)

	err = svc.NotifyAllocation(context.Background(), Allocation{FarmerID: "u1", FarmerEmail: "a@example.com"})
	assert.ErrorContains(t, err, "throttled")
}

package notify

import (
	"context"
	"fmt"
	"strings"

	"agri-supply/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Allocation is what one farmer is told after a batch commits.
type Allocation struct {
	FarmerID    string
	FarmerName  string
	FarmerEmail string
	Orders      []models.AllocatedOrder
}

// ServiceInterface defines the contract for farmer notifications.
type ServiceInterface interface {
	NotifyAllocation(ctx context.Context, a Allocation) error
}

// NopService accepts every notification and sends nothing.
type NopService struct{}

func (NopService) NotifyAllocation(context.Context, Allocation) error { return nil }

// emailSender is the part of the SES v2 client the notifier uses.
type emailSender interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESService emails farmers through Amazon SES v2.
type SESService struct {
	client emailSender
	from   string
}

// NewSESService loads the default AWS credential chain for region.
func NewSESService(ctx context.Context, region, from string) (*SESService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("notify.NewSESService: %w", err)
	}
	return &SESService{client: sesv2.NewFromConfig(cfg), from: from}, nil
}

func (s *SESService) NotifyAllocation(ctx context.Context, a Allocation) error {
	if a.FarmerEmail == "" {
		return fmt.Errorf("notify.NotifyAllocation: farmer %s has no email address", a.FarmerID)
	}
	subject, body := renderAllocation(a)
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{a.FarmerEmail}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(body)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify.NotifyAllocation: %w", err)
	}
	return nil
}

func renderAllocation(a Allocation) (subject, body string) {
	subject = fmt.Sprintf("%d new pickup order(s)", len(a.Orders))

	var b strings.Builder
	name := a.FarmerName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hello %s,\n\nThe following orders have been placed with you:\n\n", name)
	for _, o := range a.Orders {
		fmt.Fprintf(&b, "- %s: %.2f kg (order %s)\n", o.CropName, o.AssignedKg, o.OrderID)
	}
	b.WriteString("\nPlease keep the quantities aside until pickup.\n")
	return subject, b.String()
}

// GroupByFarmer collects orders per farmer, keeping the order farmers first appear in.
func GroupByFarmer(orders []models.AllocatedOrder) []Allocation {
	index := make(map[string]int)
	var out []Allocation
	for _, o := range orders {
		i, ok := index[o.FarmerID]
		if !ok {
			i = len(out)
			index[o.FarmerID] = i
			out = append(out, Allocation{FarmerID: o.FarmerID, FarmerName: o.FarmerName, FarmerEmail: o.FarmerEmail})
		}
		out[i].Orders = append(out[i].Orders, o)
	}
	return out
}

package requester

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/mturk"
)

// MTurk only has requester endpoints in us-east-1.
const Region = "us-east-1"

const (
	productionEndpoint = "https://mturk-requester.us-east-1.amazonaws.com"
	sandboxEndpoint    = "https://mturk-requester-sandbox.us-east-1.amazonaws.com"

	defaultPageSize int32 = 100
)

// API is the subset of the MTurk client used by the tools.
type API interface {
	GetHIT(ctx context.Context, params *mturk.GetHITInput, optFns ...func(*mturk.Options)) (*mturk.GetHITOutput, error)
	ListHITs(ctx context.Context, params *mturk.ListHITsInput, optFns ...func(*mturk.Options)) (*mturk.ListHITsOutput, error)
	ListAssignmentsForHIT(ctx context.Context, params *mturk.ListAssignmentsForHITInput, optFns ...func(*mturk.Options)) (*mturk.ListAssignmentsForHITOutput, error)
	CreateHIT(ctx context.Context, params *mturk.CreateHITInput, optFns ...func(*mturk.Options)) (*mturk.CreateHITOutput, error)
	AssociateQualificationWithWorker(ctx context.Context, params *mturk.AssociateQualificationWithWorkerInput, optFns ...func(*mturk.Options)) (*mturk.AssociateQualificationWithWorkerOutput, error)
	GetAccountBalance(ctx context.Context, params *mturk.GetAccountBalanceInput, optFns ...func(*mturk.Options)) (*mturk.GetAccountBalanceOutput, error)
	UpdateNotificationSettings(ctx context.Context, params *mturk.UpdateNotificationSettingsInput, optFns ...func(*mturk.Options)) (*mturk.UpdateNotificationSettingsOutput, error)
}

// Options selects the marketplace and credentials.
type Options struct {
	Sandbox bool
	// Profile names a shared credentials profile; empty uses the default chain.
	Profile string
}

// Client wraps the MTurk API with conversions into results types.
type Client struct {
	api      API
	sandbox  bool
	pageSize int32
}

// New loads AWS configuration and builds a client for the selected endpoint.
func New(ctx context.Context, opts Options) (*Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(Region)}
	if profile := strings.TrimSpace(opts.Profile); profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := mturk.NewFromConfig(cfg, func(o *mturk.Options) {
		o.BaseEndpoint = aws.String(Endpoint(opts.Sandbox))
	})
	return NewWithAPI(api, opts.Sandbox), nil
}

// NewWithAPI wraps an existing API implementation.
func NewWithAPI(api API, sandbox bool) *Client {
	return &Client{api: api, sandbox: sandbox, pageSize: defaultPageSize}
}

// Sandbox reports whether the client targets the sandbox marketplace.
func (c *Client) Sandbox() bool {
	return c.sandbox
}

// Endpoint returns the requester API endpoint.
func Endpoint(sandbox bool) string {
	if sandbox {
		return sandboxEndpoint
	}
	return productionEndpoint
}

// RequesterWebsite returns the host of the requester site.
func RequesterWebsite(sandbox bool) string {
	if sandbox {
		return "requestersandbox.mturk.com"
	}
	return "requester.mturk.com"
}

// PreviewURL links workers to a HIT group preview.
func PreviewURL(sandbox bool, hitTypeID string) string {
	if sandbox {
		return "https://workersandbox.mturk.com/mturk/preview?groupId=" + hitTypeID
	}
	return "https://www.mturk.com/mturk/preview?groupId=" + hitTypeID
}

var _ API = (*mturk.Client)(nil)

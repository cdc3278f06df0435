// Package aws provisions a subset of resource kinds on AWS.
//
// Supported kinds:
//
//	storage-bucket  S3 bucket, optionally with static website hosting
//	queue           SQS queue
//
// All other kinds fail with an UnsupportedKindError. The provider holds no
// state of its own; everything it needs for teardown is carried in the
// attributes returned from Create.
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/s3iface"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/sqsiface"
	"github.com/pkg/errors"
	"github.com/stackform/stackform/provider"
	"github.com/zclconf/go-cty/cty"
)

// Kinds provisioned by this provider.
const (
	KindBucket = "storage-bucket"
	KindQueue  = "queue"
)

// Provider provisions infrastructure on AWS.
//
// The zero value lazily loads credentials and region from the environment on
// first use. Clients can be injected for tests.
type Provider struct {
	// Region overrides the region from the environment.
	Region string

	// S3 and SQS clients. If not set, they are created from the default AWS
	// config on first use.
	S3  s3iface.ClientAPI
	SQS sqsiface.ClientAPI
}

// Create provisions infrastructure for a node.
func (p *Provider) Create(ctx context.Context, kind string, config cty.Value) (cty.Value, error) {
	switch kind {
	case KindBucket:
		return p.createBucket(ctx, config)
	case KindQueue:
		return p.createQueue(ctx, config)
	default:
		return cty.NilVal, provider.UnsupportedKindError{Kind: kind}
	}
}

// Destroy tears down previously provisioned infrastructure.
func (p *Provider) Destroy(ctx context.Context, kind string, attrs cty.Value) error {
	switch kind {
	case KindBucket:
		return p.destroyBucket(ctx, attrs)
	case KindQueue:
		return p.destroyQueue(ctx, attrs)
	default:
		return provider.UnsupportedKindError{Kind: kind}
	}
}

func (p *Provider) s3(ctx context.Context) (s3iface.ClientAPI, error) {
	if p.S3 != nil {
		return p.S3, nil
	}
	cfg, err := external.LoadDefaultAWSConfig()
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	if p.Region != "" {
		cfg.Region = p.Region
	}
	p.S3 = s3.New(cfg)
	return p.S3, nil
}

func (p *Provider) sqs(ctx context.Context) (sqsiface.ClientAPI, error) {
	if p.SQS != nil {
		return p.SQS, nil
	}
	cfg, err := external.LoadDefaultAWSConfig()
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	if p.Region != "" {
		cfg.Region = p.Region
	}
	p.SQS = sqs.New(cfg)
	return p.SQS, nil
}

// strAttr extracts a required string field from a config or attribute object.
func strAttr(obj cty.Value, name string) (string, error) {
	if !obj.Type().IsObjectType() || !obj.Type().HasAttribute(name) {
		return "", errors.Errorf("missing %q", name)
	}
	v := obj.GetAttr(name)
	if v.IsNull() || !v.IsKnown() {
		return "", errors.Errorf("%q is not set", name)
	}
	if v.Type() != cty.String {
		return "", errors.Errorf("%q is not a string", name)
	}
	return v.AsString(), nil
}

// optStrAttr extracts an optional string field. Returns "" when absent.
func optStrAttr(obj cty.Value, name string) string {
	s, err := strAttr(obj, name)
	if err != nil {
		return ""
	}
	return s
}

package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/stackform/stackform/provider"
	"github.com/zclconf/go-cty/cty"
)

// createBucket creates an S3 bucket.
//
// Config:
//
//	name           bucket name (required)
//	website_index  index document; enables static website hosting
//
// Attributes: name, arn, url and, when website hosting is enabled,
// websiteUrl.
func (p *Provider) createBucket(ctx context.Context, config cty.Value) (cty.Value, error) {
	svc, err := p.s3(ctx)
	if err != nil {
		return cty.NilVal, err
	}

	name, err := strAttr(config, "name")
	if err != nil {
		return cty.NilVal, err
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(name),
	}
	if err := input.Validate(); err != nil {
		return cty.NilVal, err
	}
	if _, err := svc.CreateBucketRequest(input).Send(ctx); err != nil {
		return cty.NilVal, classify(err)
	}

	attrs := map[string]cty.Value{
		"name": cty.StringVal(name),
		"arn":  cty.StringVal("arn:aws:s3:::" + name),
		"url":  cty.StringVal(fmt.Sprintf("https://%s.s3.amazonaws.com", name)),
	}

	if index := optStrAttr(config, "website_index"); index != "" {
		website := &s3.PutBucketWebsiteInput{
			Bucket: aws.String(name),
			WebsiteConfiguration: &s3.WebsiteConfiguration{
				IndexDocument: &s3.IndexDocument{Suffix: aws.String(index)},
			},
		}
		if _, err := svc.PutBucketWebsiteRequest(website).Send(ctx); err != nil {
			return cty.NilVal, errors.Wrap(classify(err), "enable website hosting")
		}
		attrs["websiteUrl"] = cty.StringVal(fmt.Sprintf("http://%s.s3-website.amazonaws.com", name))
	}

	return cty.ObjectVal(attrs), nil
}

// destroyBucket deletes an S3 bucket. The bucket must be empty.
func (p *Provider) destroyBucket(ctx context.Context, attrs cty.Value) error {
	svc, err := p.s3(ctx)
	if err != nil {
		return err
	}

	name, err := strAttr(attrs, "name")
	if err != nil {
		return err
	}

	input := &s3.DeleteBucketInput{
		Bucket: aws.String(name),
	}
	if _, err := svc.DeleteBucketRequest(input).Send(ctx); err != nil {
		if notFoundCode(err, s3.ErrCodeNoSuchBucket) {
			return provider.NewNotFoundError(err)
		}
		return classify(err)
	}
	return nil
}

package aws

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stackform/stackform/provider"
	"github.com/zclconf/go-cty/cty"
)

// createQueue creates an SQS queue.
//
// Config:
//
//	name  queue name (required)
//
// Attributes: name, url, arn.
func (p *Provider) createQueue(ctx context.Context, config cty.Value) (cty.Value, error) {
	svc, err := p.sqs(ctx)
	if err != nil {
		return cty.NilVal, err
	}

	name, err := strAttr(config, "name")
	if err != nil {
		return cty.NilVal, err
	}

	input := &sqs.CreateQueueInput{
		QueueName: aws.String(name),
	}
	if err := input.Validate(); err != nil {
		return cty.NilVal, err
	}
	resp, err := svc.CreateQueueRequest(input).Send(ctx)
	if err != nil {
		if notFoundCode(err, sqs.ErrCodeQueueDeletedRecently) {
			// The same name can be reused after a minute.
			return cty.NilVal, provider.NewRetryableError(err)
		}
		return cty.NilVal, classify(err)
	}

	url := aws.StringValue(resp.CreateQueueOutput.QueueUrl)

	return cty.ObjectVal(map[string]cty.Value{
		"name": cty.StringVal(name),
		"url":  cty.StringVal(url),
		"arn":  cty.StringVal(queueARN(url, name)),
	}), nil
}

// destroyQueue deletes an SQS queue.
func (p *Provider) destroyQueue(ctx context.Context, attrs cty.Value) error {
	svc, err := p.sqs(ctx)
	if err != nil {
		return err
	}

	url, err := strAttr(attrs, "url")
	if err != nil {
		return err
	}

	input := &sqs.DeleteQueueInput{
		QueueUrl: aws.String(url),
	}
	if _, err := svc.DeleteQueueRequest(input).Send(ctx); err != nil {
		if notFoundCode(err, sqs.ErrCodeQueueDoesNotExist) {
			return provider.NewNotFoundError(err)
		}
		return classify(err)
	}
	return nil
}

// queueARN derives the queue ARN from its URL. The ARN is not returned by
// CreateQueue but the conversion is mechanical.
func queueARN(url, name string) string {
	arn := url
	arn = strings.Replace(arn, "https://sqs.", "arn:aws:sqs:", 1)
	arn = strings.Replace(arn, ".amazonaws.com/", ":", 1)
	arn = strings.Replace(arn, "/"+name, ":"+name, 1)
	return arn
}

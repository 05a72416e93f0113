package lambda

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const updateWaitTimeout = 5 * time.Minute

type client struct {
	lambda  *awslambda.Client
	publish bool
}

// Option configures the Lambda client
type Option func(*client)

// WithPublish publishes a new version on every code update
func WithPublish(publish bool) Option {
	return func(c *client) {
		c.publish = publish
	}
}

// NewClient creates a new Lambda function client
func NewClient(cfg aws.Config, opts ...Option) interfaces.FunctionClient {
	c := &client{
		lambda: awslambda.NewFromConfig(cfg),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpdateCode uploads a new code archive and waits until the function
// update completes
func (c *client) UpdateCode(ctx context.Context, name string, zipData []byte) (*model.DeployResult, error) {
	out, err := c.lambda.UpdateFunctionCode(ctx, &awslambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(name),
		ZipFile:      zipData,
		Publish:      c.publish,
	})
	if err != nil {
		return nil, wrapAPIError(err, "failed to update function code", name)
	}

	waiter := awslambda.NewFunctionUpdatedV2Waiter(c.lambda)
	if err := waiter.Wait(ctx, &awslambda.GetFunctionInput{
		FunctionName: aws.String(name),
	}, updateWaitTimeout); err != nil {
		return nil, goerr.Wrap(err, "function update did not complete", goerr.V("function", name))
	}

	return &model.DeployResult{
		FunctionName: aws.ToString(out.FunctionName),
		ARN:          aws.ToString(out.FunctionArn),
		Version:      aws.ToString(out.Version),
		CodeSHA256:   aws.ToString(out.CodeSha256),
		CodeSize:     out.CodeSize,
		LastModified: aws.ToString(out.LastModified),
	}, nil
}

// GetFunction retrieves the remote state of a function
func (c *client) GetFunction(ctx context.Context, name string) (*model.RemoteFunction, error) {
	out, err := c.lambda.GetFunction(ctx, &awslambda.GetFunctionInput{
		FunctionName: aws.String(name),
	})
	if err != nil {
		return nil, wrapAPIError(err, "failed to get function", name)
	}

	conf := out.Configuration
	return &model.RemoteFunction{
		Name:         aws.ToString(conf.FunctionName),
		ARN:          aws.ToString(conf.FunctionArn),
		Runtime:      string(conf.Runtime),
		CodeSHA256:   aws.ToString(conf.CodeSha256),
		CodeSize:     conf.CodeSize,
		LastModified: aws.ToString(conf.LastModified),
	}, nil
}

// Invoke executes the function synchronously with the given JSON payload
func (c *client) Invoke(ctx context.Context, name string, payload []byte) (*model.InvokeResult, error) {
	start := time.Now()
	out, err := c.lambda.Invoke(ctx, &awslambda.InvokeInput{
		FunctionName: aws.String(name),
		Payload:      payload,
		LogType:      lambdatypes.LogTypeTail,
	})
	if err != nil {
		return nil, wrapAPIError(err, "failed to invoke function", name)
	}

	result := &model.InvokeResult{
		StatusCode:    out.StatusCode,
		Payload:       out.Payload,
		FunctionError: aws.ToString(out.FunctionError),
		Duration:      time.Since(start),
	}

	if out.LogResult != nil {
		if tail, err := base64.StdEncoding.DecodeString(*out.LogResult); err == nil {
			result.LogTail = string(tail)
		}
	}

	return result, nil
}

// wrapAPIError converts Lambda API errors to domain errors, tagging
// missing remote functions as remote_not_found
func wrapAPIError(err error, msg, name string) error {
	var notFound *lambdatypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return goerr.Wrap(err, "function does not exist remotely",
			goerr.V("function", name), goerr.T(types.ErrTagRemoteNotFound))
	}
	return goerr.Wrap(err, msg, goerr.V("function", name))
}

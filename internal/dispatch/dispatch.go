// Package dispatch sends a rendered export document to the configured remote
// function. The call is synchronous (RequestResponse): it blocks until the
// function completes and returns its decoded JSON result verbatim. The
// pipeline never interprets that result.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/codex-stevenh/clinmatch-AACT/internal/config"
	"github.com/codex-stevenh/clinmatch-AACT/internal/errors"
	"github.com/codex-stevenh/clinmatch-AACT/internal/render"
)

// LambdaAPI is the slice of the Lambda client the dispatcher uses.
// Tests substitute a fake.
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Policy controls dispatch resilience. The default is one attempt with no
// backoff and no timeout override, which leaves everything to transport
// defaults; the knobs exist so operators can harden the call without code
// changes.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration
}

// DefaultPolicy returns the single-attempt policy.
func DefaultPolicy() Policy { return Policy{MaxAttempts: 1} }

// PolicyFromConfig converts the configured dispatch settings into a Policy.
func PolicyFromConfig(c config.DispatchConfig) Policy {
	p := Policy{
		MaxAttempts: c.MaxAttempts,
		Backoff:     time.Duration(c.BackoffMS) * time.Millisecond,
		Timeout:     time.Duration(c.TimeoutMS) * time.Millisecond,
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	return p
}

// payload is the request body sent to the remote function.
type payload struct {
	Text        string `json:"text"`
	RecordCount int    `json:"record_count"`
}

// encodePayload serializes the document into the wire body. The record count
// always comes from the document itself, never from a caller-supplied value.
func encodePayload(doc render.Document) ([]byte, error) {
	return json.Marshal(payload{Text: doc.Text, RecordCount: doc.RecordCount})
}

// Client invokes one named remote function.
type Client struct {
	api          LambdaAPI
	functionName string
	policy       Policy
}

// New builds a Client for the named function in the configured region,
// using ambient AWS credentials.
func New(ctx context.Context, fn config.FunctionConfig, policy Policy) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(fn.Region))
	if err != nil {
		return nil, errors.Wrap(errors.InvocationFailed, "load AWS configuration", err)
	}
	return NewWithAPI(lambda.NewFromConfig(awsCfg), fn.Name, policy), nil
}

// NewWithAPI builds a Client over an existing Lambda API implementation.
func NewWithAPI(api LambdaAPI, functionName string, policy Policy) *Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Client{api: api, functionName: functionName, policy: policy}
}

// Invoke sends the document and its derived record count to the remote
// function and returns the function's JSON result decoded but otherwise
// untouched. Transport failures, a missing function, a function-side error
// and a non-JSON response all surface as invocation_failed.
func (c *Client) Invoke(ctx context.Context, doc render.Document) (any, error) {
	body, err := encodePayload(doc)
	if err != nil {
		return nil, errors.Wrap(errors.InvocationFailed, "encode request body", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 && c.policy.Backoff > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(errors.InvocationFailed, "dispatch canceled", ctx.Err())
			case <-time.After(c.policy.Backoff):
			}
		}
		out, err := c.invokeOnce(ctx, body)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) invokeOnce(ctx context.Context, body []byte) (any, error) {
	if c.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.Timeout)
		defer cancel()
	}

	out, err := c.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(c.functionName),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        body,
	})
	if err != nil {
		return nil, errors.Wrap(errors.InvocationFailed, fmt.Sprintf("invoke function %q", c.functionName), err)
	}
	if out.FunctionError != nil {
		return nil, errors.New(errors.InvocationFailed,
			fmt.Sprintf("function %q returned error %s: %s", c.functionName, aws.ToString(out.FunctionError), string(out.Payload)))
	}

	var decoded any
	if err := json.Unmarshal(out.Payload, &decoded); err != nil {
		return nil, errors.Wrap(errors.InvocationFailed, "decode response payload", err)
	}
	return decoded, nil
}

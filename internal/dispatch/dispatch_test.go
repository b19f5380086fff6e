package dispatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/codex-stevenh/clinmatch-AACT/internal/config"
	"github.com/codex-stevenh/clinmatch-AACT/internal/errors"
	"github.com/codex-stevenh/clinmatch-AACT/internal/render"
)

// fakeLambda records invocations and plays back scripted outputs.
type fakeLambda struct {
	inputs  []*lambda.InvokeInput
	outputs []*lambda.InvokeOutput
	errs    []error
}

func (f *fakeLambda) Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	i := len(f.inputs)
	f.inputs = append(f.inputs, params)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.outputs) {
		return f.outputs[i], nil
	}
	return &lambda.InvokeOutput{Payload: []byte(`{}`)}, nil
}

func TestEncodePayload(t *testing.T) {
	doc := render.Document{Text: "A\n----\n", RecordCount: 1}
	body, err := encodePayload(doc)
	if err != nil {
		t.Fatalf("encodePayload() error = %v", err)
	}
	want := `{"text":"A\n----\n","record_count":1}`
	if string(body) != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestInvoke(t *testing.T) {
	fake := &fakeLambda{
		outputs: []*lambda.InvokeOutput{
			{Payload: []byte(`{"status":"ok","stored":3}`)},
		},
	}
	c := NewWithAPI(fake, "study-ingest", DefaultPolicy())

	doc := render.Document{Text: "A\n----\n", RecordCount: 1}

	resp, err := c.Invoke(context.Background(), doc)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	m, ok := resp.(map[string]any)
	if !ok {
		t.Fatalf("response type = %T, want map", resp)
	}
	if m["status"] != "ok" {
		t.Errorf("status = %v, want ok", m["status"])
	}

	if len(fake.inputs) != 1 {
		t.Fatalf("invocations = %d, want 1", len(fake.inputs))
	}
	in := fake.inputs[0]
	if aws.ToString(in.FunctionName) != "study-ingest" {
		t.Errorf("FunctionName = %v", aws.ToString(in.FunctionName))
	}
	if string(in.Payload) != `{"text":"A\n----\n","record_count":1}` {
		t.Errorf("Payload = %s", in.Payload)
	}
}

func TestInvokeTransportError(t *testing.T) {
	fake := &fakeLambda{errs: []error{fmt.Errorf("dial tcp: connection refused")}}
	c := NewWithAPI(fake, "study-ingest", DefaultPolicy())

	_, err := c.Invoke(context.Background(), render.Document{Text: "x", RecordCount: 0})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.KindOf(err) != errors.InvocationFailed {
		t.Errorf("kind = %v, want invocation_failed", errors.KindOf(err))
	}
	if len(fake.inputs) != 1 {
		t.Errorf("invocations = %d, want 1 (no retry by default)", len(fake.inputs))
	}
}

func TestInvokeFunctionError(t *testing.T) {
	fake := &fakeLambda{
		outputs: []*lambda.InvokeOutput{
			{FunctionError: aws.String("Unhandled"), Payload: []byte(`{"errorMessage":"boom"}`)},
		},
	}
	c := NewWithAPI(fake, "study-ingest", DefaultPolicy())

	_, err := c.Invoke(context.Background(), render.Document{})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.KindOf(err) != errors.InvocationFailed {
		t.Errorf("kind = %v, want invocation_failed", errors.KindOf(err))
	}
}

func TestInvokeMalformedResponse(t *testing.T) {
	fake := &fakeLambda{
		outputs: []*lambda.InvokeOutput{
			{Payload: []byte(`not json`)},
		},
	}
	c := NewWithAPI(fake, "study-ingest", DefaultPolicy())

	_, err := c.Invoke(context.Background(), render.Document{})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.KindOf(err) != errors.InvocationFailed {
		t.Errorf("kind = %v, want invocation_failed", errors.KindOf(err))
	}
}

func TestInvokeRetryPolicy(t *testing.T) {
	fake := &fakeLambda{
		errs: []error{
			fmt.Errorf("transient"),
			fmt.Errorf("transient"),
		},
		outputs: []*lambda.InvokeOutput{
			nil, nil,
			{Payload: []byte(`"done"`)},
		},
	}
	c := NewWithAPI(fake, "study-ingest", Policy{MaxAttempts: 3})

	resp, err := c.Invoke(context.Background(), render.Document{Text: "x", RecordCount: 1})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if resp != "done" {
		t.Errorf("response = %v, want done", resp)
	}
	if len(fake.inputs) != 3 {
		t.Errorf("invocations = %d, want 3", len(fake.inputs))
	}
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.DispatchConfig{})
	if p.MaxAttempts != 1 || p.Backoff != 0 || p.Timeout != 0 {
		t.Errorf("zero config policy = %+v, want single attempt with no overrides", p)
	}

	p = PolicyFromConfig(config.DispatchConfig{MaxAttempts: 3, BackoffMS: 500, TimeoutMS: 2000})
	if p.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", p.MaxAttempts)
	}
	if p.Backoff != 500*time.Millisecond {
		t.Errorf("Backoff = %v, want 500ms", p.Backoff)
	}
	if p.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", p.Timeout)
	}
}

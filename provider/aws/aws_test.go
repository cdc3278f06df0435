package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws/awserr"
	"github.com/pkg/errors"
	"github.com/stackform/stackform/provider"
	"github.com/zclconf/go-cty/cty"
)

func TestClassify(t *testing.T) {
	request := func(status int) error {
		return awserr.NewRequestFailure(
			awserr.New("TestCode", "test", nil),
			status,
			"req-1",
		)
	}
	tests := []struct {
		name     string
		err      error
		notFound bool
		retry    bool
	}{
		{"NotFound", request(404), true, false},
		{"Throttled", request(429), false, true},
		{"ServerError", request(500), false, true},
		{"ServiceUnavailable", request(503), false, true},
		{"ClientError", request(400), false, false},
		{"Forbidden", request(403), false, false},
		{"NotAWS", errors.New("dial tcp: timeout"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if nf := provider.IsNotFound(got); nf != tt.notFound {
				t.Errorf("IsNotFound = %t, want %t", nf, tt.notFound)
			}
			if r := provider.IsRetryable(got); r != tt.retry {
				t.Errorf("IsRetryable = %t, want %t", r, tt.retry)
			}
		})
	}
}

func TestClassify_nil(t *testing.T) {
	if got := classify(nil); got != nil {
		t.Errorf("classify(nil) = %v, want nil", got)
	}
}

func TestNotFoundCode(t *testing.T) {
	err := awserr.New("AWS.SimpleQueueService.NonExistentQueue", "queue does not exist", nil)
	if !notFoundCode(err, "AWS.SimpleQueueService.NonExistentQueue") {
		t.Error("notFoundCode() = false for matching code")
	}
	if notFoundCode(err, "NoSuchBucket") {
		t.Error("notFoundCode() = true for different code")
	}
	if notFoundCode(errors.New("plain"), "NoSuchBucket") {
		t.Error("notFoundCode() = true for non-aws error")
	}
}

func TestQueueARN(t *testing.T) {
	got := queueARN("https://sqs.eu-west-1.amazonaws.com/123456789012/jobs", "jobs")
	want := "arn:aws:sqs:eu-west-1:123456789012:jobs"
	if got != want {
		t.Errorf("queueARN() = %q, want %q", got, want)
	}
}

func TestStrAttr(t *testing.T) {
	obj := cty.ObjectVal(map[string]cty.Value{
		"name":  cty.StringVal("files"),
		"count": cty.NumberIntVal(3),
		"empty": cty.NullVal(cty.String),
	})

	got, err := strAttr(obj, "name")
	if err != nil {
		t.Fatalf("strAttr(name) err = %v", err)
	}
	if got != "files" {
		t.Errorf("strAttr(name) = %q, want %q", got, "files")
	}

	for _, name := range []string{"missing", "count", "empty"} {
		if _, err := strAttr(obj, name); err == nil {
			t.Errorf("strAttr(%s) err = nil, want error", name)
		}
	}

	if got := optStrAttr(obj, "missing"); got != "" {
		t.Errorf("optStrAttr(missing) = %q, want empty", got)
	}
	if got := optStrAttr(obj, "name"); got != "files" {
		t.Errorf("optStrAttr(name) = %q, want %q", got, "files")
	}
}

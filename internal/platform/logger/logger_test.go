package logger

import (
	"bytes"
	"context"
	"testing"

	"marketwatch/internal/platform/testkit"
)

// Init is once-only, so the whole package shares one JSON buffer.
var buf = func() *bytes.Buffer {
	b := &bytes.Buffer{}
	Init(Options{Level: "debug", Format: "json", Service: "mw-test", Writer: b})
	return b
}()

func TestC_EnrichesScanFields(t *testing.T) {
	testkit.Serial(t)
	buf.Reset()

	ctx := WithQuery(context.Background(), 7)
	ctx = WithScan(ctx, 99, "run-abc")
	ctx = WithRequest(ctx, "req-1")
	C(ctx).Info().Msg("scan started")

	out := buf.String()
	testkit.MustContain(t, out, `"query_id":7`)
	testkit.MustContain(t, out, `"scan_id":99`)
	testkit.MustContain(t, out, `"run_id":"run-abc"`)
	testkit.MustContain(t, out, `"request_id":"req-1"`)
	testkit.MustContain(t, out, `"service":"mw-test"`)
}

func TestNamed(t *testing.T) {
	testkit.Serial(t)
	buf.Reset()
	Named("scheduler").Debug().Msg("tick")
	testkit.MustContain(t, buf.String(), `"component":"scheduler"`)
	if Named("") != Get() {
		t.Fatal("empty component should return root")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]string{"warning": "warn", "ERROR": "error", "": "info", "bogus": "info", "trace": "trace"}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q) = %s want %s", in, got, want)
		}
	}
}

func TestFilePathEmptyWithoutFileSink(t *testing.T) {
	t.Parallel()
	if FilePath() != "" {
		t.Fatalf("FilePath = %q", FilePath())
	}
}

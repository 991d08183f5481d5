package ai

import (
	"context"
	"time"

	"fioso/internal/ai/gemini"
	"fioso/internal/provider"
)

// TestPrompt is the canned prompt sent by Probe.
const TestPrompt = "hello test"

// DefaultCloudflareModel is probed when the credentials name no model.
const DefaultCloudflareModel = "@cf/meta/llama-3-8b-instruct"

// SuccessMarker is the top-level field whose presence marks a healthy reply.
func SuccessMarker(t Type) string {
	if t == TypeGemini {
		return "candidates"
	}
	return "result"
}

func probeModel(t Type, creds Credentials) string {
	if creds.Model != "" {
		return creds.Model
	}
	if t == TypeGemini {
		return gemini.TestModel
	}
	return DefaultCloudflareModel
}

// Probe sends TestPrompt to one provider. A reply carrying the success marker
// is success; any other decoded reply is response_error; a failed round trip
// is error.
func Probe(ctx context.Context, t Type, creds Credentials, options ...Option) provider.Outcome {
	out := provider.Outcome{Provider: string(t)}

	call, err := New(string(t), creds, options...)
	if err != nil {
		out.Status = provider.StatusError
		out.Code = provider.CodeNotCallable
		out.Message = err.Error()
		return out
	}

	start := time.Now()
	res, err := call(ctx, probeModel(t, creds), TestPrompt)
	out.TimeMS = time.Since(start).Milliseconds()
	if err != nil {
		out.Status = provider.StatusError
		out.Code = provider.CodeFetch
		out.Message = err.Error()
		return out
	}

	out.Sample = res
	obj, _ := res.(map[string]any)
	if present(obj[SuccessMarker(t)]) {
		out.Status = provider.StatusSuccess
	} else {
		out.Status = provider.StatusResponseError
		out.Code = provider.CodeBadResponse
	}
	return out
}

// present treats null, false, zero and "" as absent.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

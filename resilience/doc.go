// Package resilience provides retry with exponential backoff for calls to
// external services such as LLM providers and caches.
//
//	out, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (string, error) {
//	    return client.Complete(ctx, prompt)
//	})
package resilience

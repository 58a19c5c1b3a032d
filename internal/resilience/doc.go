// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes circuit breakers and retry logic for the outbound calls the
// agent makes to feeds, web pages, and AI APIs.
//
// The package supports:
//   - Circuit breakers for external API calls (Claude, OpenAI, RSS feeds, discovery)
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.DefaultConfig("my-service"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callExternalService()
//	})
//
//	err := retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
//	    return performOperation()
//	})
package resilience

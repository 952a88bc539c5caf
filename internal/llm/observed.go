package llm

import (
	"context"
	"time"
)

// Observer records the outcome of a completion call.
type Observer interface {
	ObserveCompletion(purpose, status string, seconds float64)
}

type observedClient struct {
	next     Client
	purpose  string
	observer Observer
}

// Observed tags every call through next with a purpose label for metrics.
// A nil observer returns next unchanged.
func Observed(next Client, purpose string, observer Observer) Client {
	if observer == nil {
		return next
	}
	return &observedClient{next: next, purpose: purpose, observer: observer}
}

func (c *observedClient) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := c.next.Complete(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.observer.ObserveCompletion(c.purpose, status, time.Since(start).Seconds())
	return resp, err
}

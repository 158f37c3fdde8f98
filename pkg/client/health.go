package client

import "context"

// HealthService handles health check API calls
type HealthService struct {
	client *Client
}

// Check performs a liveness probe against the server
func (s *HealthService) Check(ctx context.Context) (map[string]string, error) {
	var status map[string]string
	if err := s.client.doRequest(ctx, "GET", "/health", nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// Ready performs a readiness probe against the server
func (s *HealthService) Ready(ctx context.Context) (map[string]string, error) {
	var status map[string]string
	if err := s.client.doRequest(ctx, "GET", "/readyz", nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

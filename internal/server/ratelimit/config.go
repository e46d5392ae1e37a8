package ratelimit

import "time"

// Tier is a named limiter applied to a group of routes, keyed by client IP.
type Tier struct {
	Name    string
	Limiter *Limiter
}

// Config holds the tiers of the server.
type Config struct {
	// Login guards credential checks against guessing.
	Login Tier
	// Upload guards image ingestion, the most expensive operation.
	Upload Tier
	// Search guards the public full scan of every collection.
	Search Tier
}

// DefaultConfig returns the production limits:
//   - login: 5 per minute, burst 5
//   - upload: 30 per minute, burst 10
//   - search: 120 per minute, burst 30
func DefaultConfig() *Config {
	return &Config{
		Login:  Tier{Name: "login", Limiter: NewLimiter(5, time.Minute, 5)},
		Upload: Tier{Name: "upload", Limiter: NewLimiter(30, time.Minute, 10)},
		Search: Tier{Name: "search", Limiter: NewLimiter(120, time.Minute, 30)},
	}
}

// Close stops every limiter.
func (c *Config) Close() {
	c.Login.Limiter.Close()
	c.Upload.Limiter.Close()
	c.Search.Limiter.Close()
}

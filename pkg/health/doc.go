// Package health serves liveness and readiness probes.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"db":    db.Healthcheck(pool),
//		"cache": redis.Healthcheck(client),
//	}))
//
// Responses are plain text ("OK" or "Service Unavailable") unless the client
// asks for JSON with an Accept header or ?format=json.
package health

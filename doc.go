// Package pulsekit provides a Go client for the pulsekit analytics and
// feature flag API.
//
// Quick Start:
//
//	client, err := pulsekit.New("ph_project_key",
//	    pulsekit.WithPersonalAPIKey("ph_personal_key"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record events
//	client.Enqueue(pulsekit.Capture{
//	    DistinctID: "user-123",
//	    Event:      "signed_up",
//	    Properties: map[string]any{"plan": "premium"},
//	})
//
//	// Check feature flags
//	enabled, err := client.IsFeatureEnabled(ctx, pulsekit.FeatureFlagPayload{
//	    Key:        "new-dashboard",
//	    DistinctID: "user-123",
//	})
//
// Messages are buffered in memory and shipped in batches: a flush happens
// on the first enqueue, whenever the queue reaches FlushAt messages, and
// after FlushInterval of idle time. Delivery is at-least-once with
// per-message completion callbacks; call Close or Shutdown before exit to
// drain the queue.
//
// Feature flags with a plain rollout percentage are evaluated locally
// against a periodically refreshed definition cache, using the same
// deterministic bucketing as the server. Flags with filters, cohorts,
// variants, or group scoping are resolved through the remote decide
// endpoint.
package pulsekit

package telemetry

// Event property values never include entity content, filenames, or
// project names; only kinds, counts, and durations.

func (c *posthogClient) TrackCommandExecuted(commandName string, durationMs int64) {
	c.Track("command_executed", map[string]interface{}{
		"command":     commandName,
		"duration_ms": durationMs,
	})
}

func (c *posthogClient) TrackCommandError(commandName, errorType string) {
	c.Track("command_error", map[string]interface{}{
		"command":    commandName,
		"error_type": errorType,
	})
}

func (c *posthogClient) TrackSyncCompleted(completed, failed int, durationMs int64) {
	c.Track("sync_completed", map[string]interface{}{
		"completed":   completed,
		"failed":      failed,
		"duration_ms": durationMs,
	})
}

func (c *posthogClient) TrackConflictDetected(entityKind string) {
	c.Track("conflict_detected", map[string]interface{}{
		"entity_kind": entityKind,
	})
}

func (c *posthogClient) TrackConflictResolved(entityKind, resolution string) {
	c.Track("conflict_resolved", map[string]interface{}{
		"entity_kind": entityKind,
		"resolution":  resolution,
	})
}

func (c *posthogClient) TrackQueueDepth(pending, failed int) {
	c.Track("queue_depth", map[string]interface{}{
		"pending": pending,
		"failed":  failed,
	})
}

func (c *posthogClient) TrackOfflineMutation(entityKind, action string) {
	c.Track("offline_mutation", map[string]interface{}{
		"entity_kind": entityKind,
		"action":      action,
	})
}

func (c *posthogClient) TrackReconnect(queuedOperations int) {
	c.Track("reconnect", map[string]interface{}{
		"queued_operations": queuedOperations,
	})
}

func (c *noopClient) TrackCommandExecuted(commandName string, durationMs int64)       {}
func (c *noopClient) TrackCommandError(commandName, errorType string)                {}
func (c *noopClient) TrackSyncCompleted(completed, failed int, durationMs int64)     {}
func (c *noopClient) TrackConflictDetected(entityKind string)                        {}
func (c *noopClient) TrackConflictResolved(entityKind, resolution string)            {}
func (c *noopClient) TrackQueueDepth(pending, failed int)                            {}
func (c *noopClient) TrackOfflineMutation(entityKind, action string)                 {}
func (c *noopClient) TrackReconnect(queuedOperations int)                            {}

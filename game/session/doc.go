// Package session keeps the set of live pathfinding boards.
//
// Each session owns an independent engine.Engine, so edits and runs in one
// session never affect another. Sessions use 4-character hex IDs that are
// matched case-insensitively. They live in memory only and can be expired
// after a period of inactivity.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", "classic", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
package session

// Package shutdown provides graceful shutdown for chainstate.
//
// This package handles process termination:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Programmatic shutdown when a component fails (Trigger)
//   - Cleanup hook registration, run in reverse order under a timeout
//
// Usage:
//
//	h := shutdown.NewHandler(30*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait()
package shutdown

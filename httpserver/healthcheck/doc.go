/*
Package healthcheck serves the admin API: liveness and readiness checks for the orchestrator,
and the Go runtime's pprof handlers under /debug/pprof.
*/
package healthcheck

/*
Package system manages the startup, running, metrics and shutdown of the service.

A service runs a few things in the background (the public HTTP server, the admin server and a
metrics loop) and needs to shut them all down cleanly when told to. It should also keep serving
for a little time after a termination signal, so a load balancer can stop routing to it before
connections are refused.
*/
package system

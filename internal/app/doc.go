// Package app wires configuration, logging, telemetry, the claims pipeline
// and the HTTP surface into one Application.
//
// # Initialization Flow
//
//  1. Load configuration from the environment and an optional YAML file
//  2. Initialize the slog logger and OpenTelemetry providers
//  3. Build fetchers, loaders, the shared cache and the engines (NewPipeline)
//  4. Create the metrics, health and websocket services
//  5. Mount middleware and routes on a chi router
//
// Start launches the hub, the refresh loop and the HTTP server; Stop shuts
// them down in reverse order within the configured shutdown timeout.
//
// # Usage
//
//	a, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return a.Run()
package app

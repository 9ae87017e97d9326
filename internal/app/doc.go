// Package app wires a command's dependencies: the loaded configuration,
// the boot environment client it selects, and the audit log.
//
// Commands build an App from the configuration:
//
//	a, err := app.New(ctx, app.WithConfig(cfg))
//	defer a.Close()
//
// Tests substitute the client or the audit log:
//
//	a, err := app.New(ctx,
//	    app.WithClient(be.NewSampledEmulator()),
//	    app.WithAudit(audit.NewLogger(path)),
//	)
//
// The audit log is left out for the mock client unless WithAudit is
// given; WithoutAudit disables it for any client.
package app

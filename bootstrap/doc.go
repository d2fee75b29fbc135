// Package bootstrap runs a service through its lifecycle: validate config,
// start components in order, run hooks, wait for a signal, then stop
// components in reverse within a graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(storageComponent)
//	app.RegisterComponent(jobsComponent)
//	app.RegisterComponent(serverComponent)
//	err = app.Run(ctx)
//
// RunTask drives the same lifecycle around a finite task, for one-shot CLI
// commands.
package bootstrap

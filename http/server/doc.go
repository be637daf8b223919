// Package server implements the project planning HTTP API.
/*
server implements handlers for each service operation, using a [chi] router.

Run a Server

A server requires a [service.Service].
Besides register, login and Bonita login, all operations require a bearer token, issued by the login operation.

A server is listening on "127.0.0.1:8080".
The TCP bind address, various timeouts, CORS origins and the login rate limit can be configured by customizing the configuration.

	server, err := server.New(s, func(o *server.Options) {
		o.Logger = logger.Named("server")
	})
	if err != nil {
		log.Fatalf("failed to create HTTP server: %v", err)
	}

	server.ListenAndServe()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	server.Shutdown()

[chi]: https://github.com/go-chi/chi
*/
package server

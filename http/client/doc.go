// Package client is used to interact with a project planning server via HTTP.
/*
client provides methods for each operation of the HTTP API. Problem responses are mapped back to a [planning.Error],
when they represent an application error.

Create a Client

A client requires the base URL of a HTTP server.
Besides register, login and Bonita login, all operations require a bearer token, issued by a login.

	c, err := client.New("http://localhost:8080")
	if err != nil {
		log.Fatalf("failed to create HTTP client: %v", err)
	}

	token, err := c.Login(context.Background(), planning.LoginCmd{Email: "user@example.org", Password: "secret1"})
	if err != nil {
		log.Fatalf("failed to log in: %v", err)
	}

	c, err = client.New("http://localhost:8080", func(o *client.Options) {
		o.Token = token
	})
	if err != nil {
		log.Fatalf("failed to create HTTP client: %v", err)
	}

	defer c.Shutdown()
*/
package client

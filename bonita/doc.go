// Package bonita is used to interact with a Bonita BPM server via its REST API.
/*
The [Client] owns one authenticated session, which is obtained lazily by the first call that requires it and reused
afterwards. At most one login is in flight at any time.

Create a Client

A client requires the base URL of the Bonita web application and the credentials of a technical user.

	client, err := bonita.New("http://localhost:8080/bonita/", func(o *bonita.Options) {
		o.Username = "walter.bates"
		o.Password = "bpm"
		o.ProcessName = "ProjectPlanning"
		o.UserId = "4"
	})
	if err != nil {
		log.Fatalf("failed to create Bonita client: %v", err)
	}

	defer client.Shutdown()

Start a process instance

	caseId, err := client.StartProcessInstance(ctx, bonita.ProjectFields{
		Name:      "Water supply",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Resources: []string{"Excavator", "Pipes"},
	})

After the instantiation, the first ready user task of the new case is assigned to the configured user and executed.

Errors

CheckAvailability and ListAvailableProcesses never fail: they degrade to false and an empty list. All other
operations return typed errors like [AuthenticationError] or [InstantiationError], which can be matched using
errors.As.
*/
package bonita

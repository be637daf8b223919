// Package planning defines the model of the project planning domain: users, projects and the resources, projects
// need.
//
// Entities are persisted via a [Store]. Two implementations exist: package mem keeps everything in memory and is
// suitable for development and tests, package pg persists to a PostgreSQL database.
package planning

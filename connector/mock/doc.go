// Package mock provides a scripted test double for connector.Connector.
//
// The mock yields a fixed slice of records and can be told to fail with a
// chosen error after yielding a given number of them, which is how tests
// exercise the runner's partial-progress and retry behavior. The checkpoint
// is the count of records yielded, so a restarted pull resumes mid-script
// exactly like a real connector resuming mid-batch.
package mock

// Package coordinator runs the health check worker loop.
//
// The coordinator probes every visible entry once per cycle. A cycle starts
// when the coordinator starts and then on every tick of a fixed interval;
// cycles never overlap and ticks missed while a cycle runs are dropped.
//
// Within a cycle entries are loaded by keyset pagination and probed with a
// bounded number of probes in flight. Each probe fetches and validates the
// entry's card. The outcome is stored together with the resulting conformance
// in one transaction through state.ProbeStateService.
//
// # Conformance
//
// The conformance of an entry after a probe is:
//
//   - standard when the card was fetched and validated
//   - non-standard when the card was fetched but failed validation
//   - non-standard when the trailing run of failed probes reached the
//     failure threshold
//   - unchanged otherwise
//
// # Error Handling
//
// Failures are isolated per entry and logged. Store writes are retried with
// exponential backoff. A failure to load a page of entries is retried for at
// most half the interval, after which the cycle is abandoned and the next
// tick starts over. The coordinator never exits because of store errors.
package coordinator

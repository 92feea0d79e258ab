// Package domain models the typed event records fed into the fusion core and
// the derived products it publishes.
//
// # Inputs
//
// Upstream collectors (ACLED, UCDP, HAPI, ADS-B/AIS trackers, outage probes,
// news clustering, advisory scrapers) deliver already-parsed batches over the
// ingest boundary. Each record kind has its own struct; identity is resolved
// downstream, so records may carry a country name, an ISO code, coordinates,
// free text, or any combination.
//
// # Merge policy
//
// Ingestion semantics differ per kind and are declared explicitly via
// [MergePolicy] rather than left implicit in each ingest function:
//
//	ReplaceOnIngest — the batch is the full current truth; prior state for the
//	                  kind is reset before applying it (displacement, climate,
//	                  advisories, convergence signal snapshots).
//	AppendOnIngest  — batches accumulate until an explicit clear (protests,
//	                  conflicts, news, military counts).
//	LatestOnIngest  — one value per country, newest batch value winning (UCDP
//	                  intensity, humanitarian summaries).
//
// # Outputs
//
// [CountryScore] is the per-country Country Instability Index (CII): a 0-100
// composite with four weighted sub-components, a discrete level, and a
// single-step trend. [UnifiedAlert] is the deduplicated, merged alert feed.
// [SignalSummary] is the convergence aggregator's snapshot view.
//
// # Scoring levels
//
// Level is a pure function of the rounded score:
//
//	>=81 critical | >=66 high | >=51 elevated | >=31 normal | else low
package domain

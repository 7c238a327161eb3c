// Package jijin provides the core logic to track a set of mutual fund
// holdings, resolve each of them to a live valuation scraped from public
// finance endpoints, and compute position-level and portfolio-level
// profit and loss.
//
// The core functionalities include:
//   - Holdings Store: a single local JSON document, keyed by fund code,
//     recording the invested amount and the derived share count for each
//     tracked fund. The store is the only owner of that file.
//   - Valuation Aggregation: a per-fund pipeline that queries a fixed
//     priority chain of quote sources, falls back from one source to the
//     next, and degrades to a minimal "unavailable" record when every
//     source fails. A partially available report is a normal outcome,
//     never an error.
//   - Share Reconciliation: share counts are always derived from the
//     invested amount and the base net value at resolution time; live
//     sources never know the user's position.
//   - History Statistics: best-effort periodic return statistics
//     (week/month/quarter/year), cached in the store for one calendar day.
//
// This package serves as the foundational logic for the `jijin`
// command-line tool and its local web UI.
package jijin

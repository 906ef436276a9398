// Package dataset maps a series key onto the upstream dataset that serves it.
//
// Dataset names follow {iso}_{price_type}_{market}_{resolution}, for example
// "ercot_spp_day_ahead_hourly". Combinations with no upstream dataset produce a
// *model.UnsupportedCombinationError and are never retried.
package dataset

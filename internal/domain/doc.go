// Package domain models NOAA surface climate observations and the per-state
// running statistics built from them.
//
// # Data Source
//
// Observations come from tab-delimited (TDV) exports of NOAA surface data, one
// observation per line. Files are usually split by state ("data_tn.tdv",
// "data_wa.tdv") but nothing requires that: every line carries its own state
// code.
//
// # Line Format
//
// Nine fields separated by a single tab, terminated by a newline:
//
//	CA	1428300000000	9prcjqk3yc80	93.0	0.0	100.0	0.0	95644.0	277.58716
//
//	 1. state code (e.g. "CA", "TX")
//	 2. observation time, UNIX epoch milliseconds
//	 3. geolocation as a geohash (ignored)
//	 4. relative humidity, 0-100 %
//	 5. snow cover flag, 1 = snow present
//	 6. cloud cover, 0-100 %
//	 7. lightning flag, 1 = strike observed
//	 8. surface pressure, Pa (ignored)
//	 9. surface temperature, Kelvin
//
// Flags are exported as "0.0" / "1.0" in practice. They are truncated to an
// integer and summed as-is, so a flag of 2 counts twice.
//
// # Conversions
//
// Timestamps are truncated to whole seconds (ms / 1000). Temperatures are
// converted to Fahrenheit with F = K*1.8 - 459.67.
//
// # Aggregation
//
// [Store] keeps one [AggregateEntry] per state code in first-seen order.
// Extremes only move on a strictly greater (or lower) temperature, so on a tie
// the earliest observation keeps the timestamp. Running sums use compensated
// summation ([Sum]) so long files do not drift.
package domain

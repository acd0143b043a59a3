// Package units converts and formats brewing quantities for display.
//
// Every function is a pure transformation: no state is kept between calls
// and nothing here performs I/O. Formatters never fail. Missing or malformed
// input (NaN, ±Inf, zero, or a string that does not parse) renders as the
// formatter's placeholder, for example "-", "0.0%" or "1.000".
//
// Values arriving as strings or loosely typed JSON go through Number first,
// which maps anything it cannot parse to NaN. The formatters treat NaN as
// missing.
package units

// Package stats converts free-text measurement prose into canonical numeric ranges.
//
// A measurement such as "30 cm; 1.2 m" is split into clauses at semicolons,
// commas and parentheses. Each clause is scanned for numeric literals and a
// unit marker, and the converted values are merged into a single
// core.NormalizedRange in the field's base unit:
//   - weight in kilograms
//   - length, height, wingspan and tail in centimeters
//   - lifespan in years, gestation in days
//   - population as an individual count
//
// Text that carries no numbers yields no range. Normalization never fails and
// never produces negative bounds, so callers treat a missing range as unknown.
package stats

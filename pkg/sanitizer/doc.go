// Package sanitizer provides input normalization for catalog data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings rather than errors.
//
// Normalization includes:
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Cities and labels: lowercase, strip special characters - "Tel Aviv"
//     becomes "tel_aviv", "sea-view suite" becomes "sea_view_suite"
//   - Slices: Remove duplicates and empty values after normalization
package sanitizer

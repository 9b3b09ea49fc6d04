// Package nvd implements the HTTP client for the NVD 2.0 JSON API.
//
// The client covers the two request shapes the mirror needs: offset-paged
// bulk fetches (startIndex) and timestamp-window delta fetches. It paces
// itself with a token-bucket limiter so consecutive requests respect the
// interval the remote source asks of unauthenticated clients, regardless
// of which component triggers the request.
//
// Only the fields the mirror consumes are decoded (startIndex,
// totalResults and the mode-specific results array); record bodies stay
// as generic JSON so they round-trip to disk unmodified.
package nvd

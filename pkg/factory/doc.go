// Package factory turns raw, untrusted configuration into verified condition groups
// and conditions.
//
// Construction is fail-fast: the first invalid input aborts the whole call and no
// partially built value is ever returned. Presentation metadata is always rebuilt from
// the registry; whatever the caller sends under those keys is discarded by
// StripPresentationKeys.
package factory

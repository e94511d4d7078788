/*
Package observability provides monitoring support for the group service.

It includes Prometheus collectors for service operations and a classification of
errors into stable kinds, shared by the metrics labels and the transports.
*/
package observability

// Package rest decodes JSON responses from an httpclient.Client into typed
// values:
//
//	op, err := rest.Get[operation](ctx, client, "/v1p1beta1/operations/"+name)
package rest

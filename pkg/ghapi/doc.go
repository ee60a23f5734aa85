// Package ghapi provides types, interfaces, and helpers for working with the
// GitHub v3 REST API.
//
// # Overview
//
// The ghapi package defines the models (Repository, User, Event, Migration,
// DeployKey, TeamDiscussion), the resource client interfaces, the request
// and response envelopes, and the error taxonomy. A concrete client is
// provided by the ghclient package, which wires configuration, transport and
// authentication.
//
//	cli, err := ghclient.NewWithToken(ctx, os.Getenv("GITHUB_TOKEN"))
//	if err != nil { log.Fatal(err) }
//
//	repo, err := cli.Repositories().Get(ctx, ghapi.RefName("octocat/hello-world"))
//
// # References
//
// Operations take a Ref, which can be a raw name ("owner/name"), a numeric
// id, or a decoded model. ResolvePath turns any of them into a canonical
// path; equivalent references always resolve to the same string.
//
// # Optional fields
//
// Model fields that GitHub may omit are schema.Optional values. An absent
// field reads as absent, never as a zero value, and absent fields are left
// out of request bodies.
//
// # Pagination
//
// List operations return a PaginationIterator that follows rel="next" Link
// headers lazily:
//
//	it := cli.Repositories().ListForOrg(ctx, "golang", ghapi.NewParams().WithPerPage(50))
//	for repo, err := range it.Items() {
//	  if err != nil { return err }
//	  fmt.Println(repo.FullName)
//	}
//
// # Errors
//
// Non-2xx responses become *APIError values with a Kind; use errors.Is with
// ErrNotFound, ErrRateLimited and friends, or the IsNotFound style helpers.
// Connection failures are *TransportError, and successful responses that do
// not match their model are *DecodeError.
package ghapi

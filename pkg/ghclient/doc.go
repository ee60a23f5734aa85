// Package ghclient is the entry point for constructing a GitHub v3 REST API
// client that implements the ghapi.Client interface.
//
// It layers configuration, the retrying HTTP transport and authentication on
// top of the resource interfaces and models defined in the ghapi package.
// Most applications import ghclient to build a client, then use the returned
// ghapi.Client to reach the resource clients: Repositories(), Users(),
// Events(), Migrations(), DeployKeys(), Discussions() and RateLimit().
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//	  "os"
//
//	  "github.com/fivetwenty-io/ghapi/pkg/ghapi"
//	  "github.com/fivetwenty-io/ghapi/pkg/ghclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Anonymous access to public data (60 requests an hour).
//	  cli, err := ghclient.NewAnonymous(ctx)
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with a personal access token:
//	  cli, err = ghclient.NewWithToken(ctx, os.Getenv("GITHUB_TOKEN"))
//
//	  // Or with the full configuration:
//	  cli, err = ghclient.New(ctx, &ghapi.Config{
//	    BaseURL:          "github.example.com/api/v3",
//	    Credential:       ghapi.TokenAuth{Token: os.Getenv("GITHUB_TOKEN")},
//	    RetryOnRateLimit: true,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  repos := cli.Repositories().ListForUser(ctx, "octocat", ghapi.NewParams().WithSort("updated"))
//	  for repo, err := range repos.Items() {
//	    if err != nil { log.Fatal(err) }
//	    log.Println(repo.FullName)
//	  }
//	}
//
// # GitHub Apps
//
// AppInstallation authenticates as an installation of a GitHub App. The App
// JWT is signed locally from the private key, exchanged for an installation
// token, and the token is reused until five minutes before it expires. App
// authenticates as the App itself for the app/* endpoints.
package ghclient

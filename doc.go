// Package basic is the Go client SDK for the Basic platform. It provides
// OAuth2 authentication against the Basic identity provider and a
// schema-typed client for a project's document store.
//
// # Architecture
//
// Auth: the session manager. It runs the authorization-code flow, persists
// the token pair through a pluggable SecretStore, decides token validity
// locally from the access token's expiry claim, and refreshes transparently.
// Every data request obtains its bearer token through Auth.Token.
//
// Collection: a client for one named collection, issuing list, get, create,
// patch-update, full-replace and delete against the project's data API.
// Responses arrive in a {data: ...} envelope and are checked against the
// declared schema.
//
// Query: client-side narrowing of a fetched record set. The data API has no
// query pushdown; List fetches everything and Filter/Order/Limit/Offset are
// applied locally, in that order, regardless of chaining order.
//
// # Basic Usage
//
// Declare a schema and construct a client with a secret store:
//
//	schema := &basic.Schema{
//	    ProjectID: "my-project",
//	    Version:   1,
//	    Tables: map[string]basic.Table{
//	        "todos": {Fields: map[string]basic.Field{
//	            "title": {Type: basic.FieldTypeString},
//	            "done":  {Type: basic.FieldTypeBoolean},
//	        }},
//	    },
//	}
//
//	store, _ := fs.NewStore("", "myapp")
//	client, err := basic.New(basic.Config{
//	    Schema:      schema,
//	    RedirectURL: "http://127.0.0.1:9876/callback",
//	}, store)
//
// Sign in and work with data:
//
//	auth := client.Auth()
//	if err := auth.Initialize(ctx); err != nil { ... }
//	if auth.Status() != basic.StatusSignedIn {
//	    user, err := auth.LoginWithLocalServer(ctx, browser.OpenURL)
//	    ...
//	}
//
//	todos, _ := client.Collection("todos")
//	open, err := todos.Query().
//	    Filter("done", basic.Eq(false)).
//	    Order("created_at", basic.Descending).
//	    Limit(20).
//	    All(ctx)
//
// # Secret Stores
//
// The stores subpackages provide SecretStore implementations: an optionally
// encrypted file store for CLI and desktop apps, a GORM-backed store and an
// scs session store for server-side apps, and a Cloud Datastore store for
// App Engine. Platform-native secure storage (Keychain, Keystore) is left to
// the embedding application.
//
// # Concurrency
//
// Auth.Token is safe for concurrent request paths: the session lock is held
// across a refresh, so one expiry event triggers exactly one token exchange
// and concurrent callers share its result. A narrow race remains between two
// separate processes refreshing against the same store; refresh tokens are
// rotated by the issuer, so cross-process sessions should use separate
// stores.
package basic

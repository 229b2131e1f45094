// Command basic-demo signs in to a Basic project from the terminal and runs a
// small CRUD session against a "todos" collection, as a smoke test for the
// SDK's login and data paths.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"

	basic "github.com/basicdb/basic-go"
	fsstore "github.com/basicdb/basic-go/stores/fs"
)

func main() {
	projectID := flag.String("project", "", "Basic project id")
	baseURL := flag.String("base-url", basic.DefaultBaseURL, "API host")
	redirect := flag.String("redirect", "http://127.0.0.1:8910/callback", "loopback redirect URL")
	signout := flag.Bool("signout", false, "clear the stored session and exit")
	flag.Parse()

	if *projectID == "" {
		log.Fatal("basic-demo: -project is required")
	}

	store, err := fsstore.NewStore("", "basic-demo")
	if err != nil {
		log.Fatalf("basic-demo: open secret store: %v", err)
	}

	schema := &basic.Schema{
		ProjectID: *projectID,
		Version:   1,
		Tables: map[string]basic.Table{
			"todos": {Fields: map[string]basic.Field{
				"title": {Type: basic.FieldTypeString, Indexed: true},
				"done":  {Type: basic.FieldTypeBoolean},
			}},
		},
	}

	client, err := basic.New(basic.Config{
		Schema:      schema,
		RedirectURL: *redirect,
		BaseURL:     *baseURL,
	}, store, basic.WithLogger(slog.Default()))
	if err != nil {
		log.Fatalf("basic-demo: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	auth := client.Auth()
	if *signout {
		if err := auth.Signout(ctx); err != nil {
			log.Fatalf("basic-demo: signout: %v", err)
		}
		fmt.Println("signed out")
		return
	}

	if err := auth.Initialize(ctx); err != nil {
		slog.Warn("no restorable session", "err", err)
	}
	if auth.Status() != basic.StatusSignedIn {
		user, err := auth.LoginWithLocalServer(ctx, openBrowser)
		if err != nil {
			log.Fatalf("basic-demo: login: %v", err)
		}
		fmt.Printf("signed in as %s\n", user.Email)
	} else if user := auth.User(); user != nil {
		fmt.Printf("restored session for %s\n", user.Email)
	}

	todos, err := client.Collection("todos")
	if err != nil {
		log.Fatalf("basic-demo: %v", err)
	}

	created, err := todos.Create(ctx, basic.Record{"title": "try the basic-go SDK", "done": false})
	if err != nil {
		log.Fatalf("basic-demo: create: %v", err)
	}
	fmt.Printf("created %s\n", created.ID())

	if _, err := todos.Update(ctx, created.ID(), basic.Record{"done": true}); err != nil {
		log.Fatalf("basic-demo: update: %v", err)
	}

	open, err := todos.Query().Filter("done", false).Order("title").All(ctx)
	if err != nil {
		log.Fatalf("basic-demo: query: %v", err)
	}
	fmt.Printf("%d open todos\n", len(open))

	if err := todos.Delete(ctx, created.ID()); err != nil {
		log.Fatalf("basic-demo: delete: %v", err)
	}
	fmt.Println("done")
}

// openBrowser hands the authorization URL to the OS browser, falling back to
// printing it for the user to open manually.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "open this URL to sign in:\n  %s\n", url)
	}
	return nil
}

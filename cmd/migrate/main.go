// Command migrate applies SPARQL and Turtle migrations to a triplestore.
package main

import "github.com/aqasim81/graph-migration-engine/internal/cli"

func main() {
	cli.Execute()
}

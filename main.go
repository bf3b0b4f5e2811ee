// reposteria - semantic search over a pastry recipe ontology.
//
// reposteria loads an OWL/RDF ontology of desserts, ingredients, tools and
// techniques, and answers ranked keyword searches from the command line,
// over HTTP and over MCP, optionally federating DBpedia.
package main

import (
	"fmt"
	"os"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

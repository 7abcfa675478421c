// Command rentascout is the entry point for the catalog scraper and the
// semantic search API.
package main

import "github.com/rentascout/rentascout-mvp/cli"

func main() {
	cli.Execute()
}

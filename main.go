// ABOUTME: Entry point for the Resonate visualizer
// ABOUTME: Hands off to the cobra command tree
package main

import "github.com/Resonate-Protocol/resonate-visualizer/internal/cli"

func main() {
	cli.Execute()
}

// Command htmledit applies a pipeline of selector based edits to an HTML
// document.
package main

import "os"

func main() {
	os.Exit(execute(os.Args[1:]))
}

// Command alltube-get resolves a media page URL from the terminal and
// streams the media to a file or stdout, without the HTTP service.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

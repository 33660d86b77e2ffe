package main

import (
	"fmt"
	"os"

	"faq_scrap/internal/entrypoint"
)

func main() {
	code, err := entrypoint.Execute(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	if err != nil || code != 0 {
		if code == 0 {
			code = 1
		}
		os.Exit(code)
	}
}

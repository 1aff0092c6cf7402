package main

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/npmmirror/internal/app"
)

func main() {
	if err := app.ExecutePublish(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"
)

func run() int {
	fmt.Println("running")
	return 0
}

func exit(code int) {
	os.Exit(code)
}

func main() {
	defer fmt.Println("never printed")

	if code := run(); code != 0 {
		exit(code)
	}

	go func() {
		os.Exit(3)
	}()

	os.Exit(1) // want "avoid using os.Exit in main.main"
}

package main

import (
	stdos "os"
)

type os struct{}

func (os) Exit(int) {}

func main() {
	var fake os
	fake.Exit(2)

	stdos.Exit(1) // want "avoid using os.Exit in main.main"
}

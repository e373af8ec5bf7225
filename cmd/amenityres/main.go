package main

import "github.com/example/amenity-reserve/internal/interfaces/cli"

func main() {
	cli.Execute()
}

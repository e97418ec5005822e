package main

import "github.com/derickschaefer/eqviz/cmd"

func main() {
	cmd.Execute()
}

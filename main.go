package main

import "github.com/kamusis/mansh/cmd"

func main() {
	cmd.Execute()
}

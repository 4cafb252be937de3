package main

import "github.com/primar/console/cmd"

func main() {
	cmd.Execute()
}

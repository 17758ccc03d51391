package main

import "github.com/kvdb-io/kvdb-go/cmd"

func main() {
	cmd.Execute()
}

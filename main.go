package main

import "github.com/Mohsinsiddi/milknet/cmd"

func main() {
	cmd.Execute()
}

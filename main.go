package main

import "github.com/pin-drift/guardcheck/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/Lyadalachanchu/voice4evs/cmd"

func main() {
	cmd.Execute()
}

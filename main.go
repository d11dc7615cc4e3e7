package main

import "github.com/pitchside/apiserver/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/gitdone-app/gitdone-client/cmd"

func main() {
	cmd.Execute()
}

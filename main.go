package main

import "github.com/iksnae/serenity-guest/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/gartstein/vcpms/cmd/vcpmsctl/commands"

func main() {
	commands.Execute()
}

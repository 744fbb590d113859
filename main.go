package main

import "cogbattery/internal/cli"

func main() {
	cli.Execute()
}

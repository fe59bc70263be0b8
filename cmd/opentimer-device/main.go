package main

import "github.com/oshokin/opentimer/cmd/opentimer-device/cmd"

func main() {
	cmd.Execute()
}

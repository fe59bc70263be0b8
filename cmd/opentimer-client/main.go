package main

import "github.com/oshokin/opentimer/cmd/opentimer-client/cmd"

func main() {
	cmd.Execute()
}
